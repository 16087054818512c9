package notify

import (
	"context"
	"fmt"

	"github.com/Travis-Britz/duckdns"
	"github.com/gen2brain/beeep"
)

// Desktop shows notifications as OS toasts.
// The toast's lifetime is left to the OS; Notification.Expiry is not used.
type Desktop struct {
	show func(title, message string) error
}

func NewDesktop() *Desktop {
	return &Desktop{show: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

// Notify implements duckdns.Notifier.
func (d *Desktop) Notify(ctx context.Context, n duckdns.Notification) error {
	if err := d.show(n.Title, n.Message); err != nil {
		return fmt.Errorf("error showing desktop notification: %w", err)
	}
	return nil
}
