package alert

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/andresuchdata/dropgate/internal/config"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

// Alert is a blocking notice for the operator.
type Alert struct {
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Path     string    `json:"path"`
	RaisedAt time.Time `json:"raised_at"`
}

// Notifier delivers an Alert. Notify returns only once the alert has been
// acknowledged (or delivered, for non-interactive backends), so callers are
// held until the operator has seen it.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// InvalidName is the alert raised for a file whose name breaks the
// convention.
func InvalidName(path string, at time.Time) Alert {
	return Alert{
		Title:    "Invalid file name",
		Message:  fmt.Sprintf("The following file has an invalid name and was not uploaded:\n%s", path),
		Path:     path,
		RaisedAt: at,
	}
}

// New returns the Notifier selected by cfg.Backend.
func New(cfg config.AlertConfig) (Notifier, error) {
	switch resolveBackend(cfg.Backend, term.IsTerminal(int(os.Stdin.Fd()))) {
	case config.AlertLog:
		logger.Log.Warn().
			Str("backend", config.AlertLog).
			Msg("Invalid file names will only be logged; set ALERT_BACKEND=console, dialog or redis for acknowledged alerts")
		return NewLog(), nil
	case config.AlertConsole:
		return NewConsole(os.Stderr, os.Stdin), nil
	case config.AlertDialog:
		return NewDialog(), nil
	case config.AlertRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unknown alert backend %q", cfg.Backend)
	}
}

func resolveBackend(backend string, interactive bool) string {
	if backend != "" && backend != config.AlertAuto {
		return backend
	}
	if interactive {
		return config.AlertConsole
	}
	return config.AlertLog
}
