// Package notify sends push notifications. Delivery is best-effort: send
// failures are logged by callers and never affect trip state.
package notify

import "context"

type Push struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Sender interface {
	Send(ctx context.Context, p Push) error
}

// Nop discards all pushes; used in tests and when FCM is not configured.
type Nop struct{}

func (Nop) Send(context.Context, Push) error { return nil }
