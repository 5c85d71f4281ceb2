package main

import (
	"context"
	"time"

	"visiverse/internal/service"
)

// scanner runs the importer loop in the background.
type scanner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startScanner(ctx context.Context, imp service.Importer, interval time.Duration) *scanner {
	ctx, cancel := context.WithCancel(ctx)
	s := &scanner{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		imp.Run(ctx, interval)
	}()
	return s
}

// stop cancels the loop and waits until the running scan has persisted its
// outcome, or until ctx expires.
func (s *scanner) stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
