package alert

import (
	"context"

	"github.com/andresuchdata/dropgate/pkg/logger"
)

// Log writes alerts to the structured logger. It never blocks.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (Log) Notify(_ context.Context, a Alert) error {
	logger.Log.Error().
		Str("path", a.Path).
		Time("raised_at", a.RaisedAt).
		Msg(a.Title)
	return nil
}
