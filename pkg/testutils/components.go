package testutils

// Components shared by the fecs tests. Named types are used so each one is its own component type.

type Position struct{ X, Y float32 }

type Velocity struct{ X, Y float32 }

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "Health" }

type PlayerTag struct{ Tag string }

func (PlayerTag) Name() string { return "PlayerTag" }

// Counter stands in for a bare unsigned integer component.
type Counter uint32

type Score int
