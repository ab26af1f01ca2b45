package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Fanout delivers each event to every configured sink.
type Fanout struct {
	sinks []Publisher
}

// NewFanout drops nil entries from pubs.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.sinks = append(f.sinks, p)
		}
	}
	return f
}

// Publish tries every sink and reports how many accepted the event. Failures
// are joined; one failing sink never skips the rest.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}
	delivered := 0
	var errs []error
	for _, p := range f.sinks {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, sinkErr(p, err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size is the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// Close releases sinks holding client connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.sinks {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, sinkErr(p, err))
		}
	}
	return errors.Join(errs...)
}

func sinkErr(p Publisher, err error) error {
	return fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
}
