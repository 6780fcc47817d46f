package persist

import "context"

// Noop discards every event. It satisfies Publisher for tests and for
// deployments that haven't wired a persistence collaborator yet.
type Noop struct{}

func (Noop) PublishMatchEnded(context.Context, MatchEndedEvent) error { return nil }
func (Noop) PublishTick(context.Context, TickEvent) error             { return nil }
func (Noop) Close() error                                             { return nil }
