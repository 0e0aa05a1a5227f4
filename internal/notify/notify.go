// Package notify defines the outbound notification sink. Desktop
// delivery is a collaborator outside this module; the core only needs
// fire-and-forget title/message semantics.
package notify

import "github.com/hal/prwatch/internal/log"

// Notifier accepts user-facing notifications. No delivery confirmation
// is required or expected.
type Notifier interface {
	Notify(title, message string)
}

// Func adapts a plain function into a Notifier.
type Func func(title, message string)

func (f Func) Notify(title, message string) {
	f(title, message)
}

// Log is a Notifier that writes notifications to the application log.
// It is the default sink when no desktop integration is wired in.
type Log struct{}

func (Log) Notify(title, message string) {
	log.Warn("notification", "title", title, "message", message)
}
