package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ncruces/zenity"
)

// Dialog shows each alert as a native warning dialog.
type Dialog struct {
	mu   sync.Mutex
	show func(ctx context.Context, a Alert) error
}

func NewDialog() *Dialog {
	return &Dialog{show: showWarning}
}

func (d *Dialog) Notify(ctx context.Context, a Alert) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.show(ctx, a)
}

func showWarning(ctx context.Context, a Alert) error {
	err := zenity.Warning(a.Message,
		zenity.Title(a.Title),
		zenity.Context(ctx),
	)
	// Closing the window counts as acknowledging it.
	if err == nil || errors.Is(err, zenity.ErrCanceled) {
		return nil
	}
	return fmt.Errorf("show dialog: %w", err)
}
