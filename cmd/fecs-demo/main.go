// Command fecs-demo walks through the registry lifecycle: it creates three entities holding a
// uint32, queries them, destroys the middle one and queries again. Everything is printed as JSON
// log lines on stdout.
package main

import (
	"os"

	"github.com/argus-labs/fecs/pkg/fecs"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := run(log.Logger); err != nil {
		log.Fatal().Err(err).Msg("demo failed")
	}
}

func run(logger zerolog.Logger) error {
	r, err := fecs.NewRegistry(fecs.Options{Logger: &logger})
	if err != nil {
		return eris.Wrap(err, "failed to create registry")
	}

	entities := make([]fecs.Entity, 0, 3)
	for _, value := range []uint32{32, 64, 128} {
		e, err := r.Create()
		if err != nil {
			return eris.Wrap(err, "failed to create entity")
		}
		if err := fecs.Attach(r, e, value); err != nil {
			return eris.Wrapf(err, "failed to attach %d", value)
		}
		entities = append(entities, e)
	}

	if err := report(logger, r, "initial query"); err != nil {
		return err
	}

	if err := r.Destroy(entities[1]); err != nil {
		return eris.Wrap(err, "failed to destroy entity")
	}
	logger.Info().Stringer("entity", entities[1]).Msg("destroyed")

	if err := report(logger, r, "after destroy"); err != nil {
		return err
	}

	stats, err := json.Marshal(r.Stats())
	if err != nil {
		return eris.Wrap(err, "failed to encode stats")
	}
	logger.Info().RawJSON("stats", stats).Msg("registry stats")
	return nil
}

type row struct {
	Entity  string `json:"entity"`
	Index   uint32 `json:"index"`
	Version uint32 `json:"version"`
	Value   uint32 `json:"value"`
}

// report logs every entity holding a uint32 together with its value.
func report(logger zerolog.Logger, r *fecs.Registry, msg string) error {
	matches := r.Query(fecs.TypeOf[uint32]())
	rows := make([]row, 0, len(matches))
	for _, e := range matches {
		value, ok := fecs.Get[uint32](r, e)
		if !ok {
			return eris.Errorf("queried %s has no value", e)
		}
		rows = append(rows, row{Entity: e.String(), Index: e.Index(), Version: e.Version(), Value: value})
	}

	bz, err := json.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "failed to encode query result")
	}
	logger.Info().Int("count", len(rows)).RawJSON("entities", bz).Msg(msg)
	return nil
}
