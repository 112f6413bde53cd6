package eventbus

import (
	"context"

	"github.com/rs/zerolog"
)

// LogConsumer logs every schema event.
type LogConsumer struct {
	log zerolog.Logger
}

func NewLogConsumer(log zerolog.Logger) *LogConsumer { return &LogConsumer{log: log} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt Event) error {
	switch evt.Type {
	case SchemaLoadFailed:
		c.log.Warn().
			Str("branch", evt.Branch).
			Str("source", string(evt.Source)).
			Str("error", evt.Error).
			Msg("schema load failed")
	default:
		c.log.Info().
			Str("branch", evt.Branch).
			Str("source", string(evt.Source)).
			Str("hash", evt.Hash).
			Str("previous", evt.PreviousHash).
			Int("kinds", evt.Kinds).
			Msg("schema changed")
	}
	return nil
}
