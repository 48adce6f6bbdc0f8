package alert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Console prints alerts to a terminal and, when stdin is interactive, waits
// for Enter before returning. Alerts are shown one at a time.
type Console struct {
	mu          sync.Mutex
	out         io.Writer
	in          io.Reader
	interactive bool

	startReader sync.Once
	acks        chan time.Time
	eof         chan struct{}
	readErr     error
}

func NewConsole(out io.Writer, in io.Reader) *Console {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return newConsole(out, in, interactive)
}

func newConsole(out io.Writer, in io.Reader, interactive bool) *Console {
	return &Console{
		out:         out,
		in:          in,
		interactive: interactive,
		acks:        make(chan time.Time),
		eof:         make(chan struct{}),
	}
}

func (c *Console) Notify(ctx context.Context, a Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "\n*** %s ***\n%s\n", a.Title, a.Message); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	if !c.interactive {
		return nil
	}

	fmt.Fprint(c.out, "Press Enter to continue...")
	shown := time.Now()
	c.startReader.Do(func() { go c.readAcks() })

	for {
		select {
		case at := <-c.acks:
			// Enter pressed before this alert was shown belongs to an
			// earlier, abandoned prompt.
			if at.Before(shown) {
				continue
			}
			return nil
		case <-c.eof:
			return fmt.Errorf("read acknowledgement: %w", c.readErr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readAcks turns every line read from in into an acknowledgement stamped
// with the time it was read.
func (c *Console) readAcks() {
	r := bufio.NewReader(c.in)
	for {
		_, err := r.ReadString('\n')
		if err != nil {
			c.readErr = err
			close(c.eof)
			return
		}
		c.acks <- time.Now()
	}
}
