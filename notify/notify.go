// Package notify delivers duckdns notifications to the places a user might see them.
package notify

import (
	"context"
	"errors"

	"github.com/Travis-Britz/duckdns"
	"github.com/sirupsen/logrus"
)

// Multi fans a notification out to every notifier, in order.
// All notifiers are tried; their errors are joined.
func Multi(notifiers ...duckdns.Notifier) duckdns.Notifier {
	return multi(notifiers)
}

type multi []duckdns.Notifier

func (m multi) Notify(ctx context.Context, n duckdns.Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes each notification to logger at info level.
// It is the fallback sink when nothing else is configured.
func Log(logger logrus.FieldLogger) duckdns.Notifier {
	return duckdns.NotifierFunc(func(ctx context.Context, n duckdns.Notification) error {
		logger.WithFields(logrus.Fields{
			"title":  n.Title,
			"expiry": n.Expiry,
		}).Info(n.Message)
		return nil
	})
}
