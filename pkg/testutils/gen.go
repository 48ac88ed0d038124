package testutils

import "github.com/argus-labs/fecs/pkg/assert"

// Gen enumerates every combination of the choices a test makes, one combination per iteration:
//
//	for g := testutils.NewGen(); !g.Done(); {
//		n := g.Intn(3)
//		...
//	}
//
// Each call to Intn records a (value, bound) pair. Done advances to the next sequence by bumping
// the rightmost value still below its bound and dropping every choice after it, so later choices
// are re-made from zero. See https://matklad.github.io/2021/11/07/generate-all-the-things.html.
type Gen struct {
	started bool
	choices []choice
	pos     int
}

type choice struct {
	value, bound int
}

const maxGenDepth = 64

// NewGen returns a generator positioned before its first combination.
func NewGen() *Gen {
	return &Gen{started: false, choices: make([]choice, 0, maxGenDepth), pos: 0}
}

// Done reports whether every combination has been produced.
func (g *Gen) Done() bool {
	g.pos = 0
	if !g.started {
		g.started = true
		return false
	}
	for i := len(g.choices) - 1; i >= 0; i-- {
		if g.choices[i].value < g.choices[i].bound {
			g.choices[i].value++
			g.choices = g.choices[:i+1]
			return false
		}
	}
	return true
}

// Intn returns a value in [0, bound].
func (g *Gen) Intn(bound int) int {
	assert.That(bound >= 0, "gen: negative bound %d", bound)
	if g.pos == len(g.choices) {
		assert.That(len(g.choices) < maxGenDepth, "gen: exceeded maximum depth of %d", maxGenDepth)
		g.choices = append(g.choices, choice{value: 0, bound: 0})
	}
	g.choices[g.pos].bound = bound
	value := g.choices[g.pos].value
	g.pos++
	return value
}

// Bool returns false then true.
func (g *Gen) Bool() bool {
	return g.Intn(1) == 1
}
