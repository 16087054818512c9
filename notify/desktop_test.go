package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/Travis-Britz/duckdns"
	"github.com/stretchr/testify/assert"
)

func TestDesktop(t *testing.T) {
	var title, message string
	d := &Desktop{show: func(t, m string) error {
		title, message = t, m
		return nil
	}}

	err := d.Notify(context.Background(), duckdns.Notification{Title: duckdns.Title, Message: "Configuration invalid"})

	assert.NoError(t, err)
	assert.Equal(t, "Duck DNS Updater", title)
	assert.Equal(t, "Configuration invalid", message)
}

func TestDesktopError(t *testing.T) {
	boom := errors.New("no notification daemon")
	d := &Desktop{show: func(string, string) error { return boom }}

	assert.ErrorIs(t, d.Notify(context.Background(), duckdns.Notification{}), boom)
}
