// Package notify sends optional email and SMS notices about budget changes.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Message is a short notice. SMS channels send only the Subject.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a message on one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to every configured channel. A failing channel
// does not stop the others.
type Multi struct {
	channels []Notifier
}

func NewMulti(channels ...Notifier) *Multi {
	return &Multi{channels: channels}
}

// FromConfig builds a Multi from whichever channels are configured.
func FromConfig(email EmailConfig, sms SMSConfig) *Multi {
	var channels []Notifier
	if e := NewEmail(email); e != nil {
		channels = append(channels, e)
	}
	if s := NewSMS(sms); s != nil {
		channels = append(channels, s)
	}
	return NewMulti(channels...)
}

// Names lists the configured channels.
func (m *Multi) Names() []string {
	names := make([]string, 0, len(m.channels))
	for _, c := range m.channels {
		names = append(names, c.Name())
	}
	return names
}

// Enabled reports whether any channel is configured.
func (m *Multi) Enabled() bool {
	return len(m.channels) > 0
}

// Notify sends msg on every channel and returns the joined errors, each
// prefixed with its channel name.
func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}
