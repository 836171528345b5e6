// Package clipboard copies secrets to the clipboard and clears them after a delay.
package clipboard

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultClearAfter is how long a copied secret stays on the clipboard.
const DefaultClearAfter = 15 * time.Second

// Writer replaces the clipboard contents. Writing "" clears it.
type Writer interface {
	WriteClipboard(text string) error
}

// OSC52 sets the terminal's clipboard with the OSC 52 escape sequence.
// It works over SSH and needs no system clipboard tooling.
type OSC52 struct {
	Out io.Writer
}

// WriteClipboard emits ESC ] 52 ; c ; <base64> BEL.
func (o OSC52) WriteClipboard(text string) error {
	_, err := fmt.Fprintf(o.Out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}

// Clearer copies text and schedules a clear. A newer copy supersedes the
// pending clear of an older one; Cancel clears immediately.
type Clearer struct {
	w Writer

	mu      sync.Mutex
	gen     uint64
	stop    context.CancelFunc
	pending sync.WaitGroup
}

// NewClearer constructs a Clearer writing through w.
func NewClearer(w Writer) *Clearer {
	return &Clearer{w: w}
}

// CopyAndClear writes text now and clears the clipboard after the delay,
// or as soon as ctx is done. A non-positive delay means DefaultClearAfter.
func (c *Clearer) CopyAndClear(ctx context.Context, text string, after time.Duration) error {
	if after <= 0 {
		after = DefaultClearAfter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.w.WriteClipboard(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	if c.stop != nil {
		c.stop()
	}
	c.gen++
	gen := c.gen
	cctx, stop := context.WithCancel(ctx)
	c.stop = stop

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		t := time.NewTimer(after)
		defer t.Stop()
		select {
		case <-t.C:
		case <-cctx.Done():
		}
		c.clear(gen)
	}()
	return nil
}

// clear wipes the clipboard unless a newer copy owns it.
func (c *Clearer) clear(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	_ = c.w.WriteClipboard("")
	c.gen++
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// Cancel clears any pending secret right away.
func (c *Clearer) Cancel() {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	c.pending.Wait()
}

// Wait blocks until every scheduled clear has run.
func (c *Clearer) Wait() {
	c.pending.Wait()
}
