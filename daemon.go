package duckdns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type cycleKey struct{}

func withCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

func cycleID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(cycleKey{}).(string)
	return id, ok
}

// RunDaemon starts runner as a goroutine.
//
// The first cycle runs immediately and every following cycle runs once per interval.
// The goroutine stops when a cycle returns Disable or ctx is cancelled,
// and sends the reason (Disable or Continue respectively) on the returned channel before closing it.
//
// A non-positive interval is treated as Every15Minutes.
// A nil logger discards log messages.
func RunDaemon(ctx context.Context, runner Runner, interval time.Duration, logger logrus.FieldLogger) <-chan Result {
	if interval <= 0 {
		interval = Every15Minutes.Duration()
	}
	if logger == nil {
		logger = discard
	}
	done := make(chan Result, 1)
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if ctx.Err() != nil {
				done <- Continue
				return
			}
			id := uuid.NewString()
			log := logger.WithField("cycle", id)
			log.Debug("starting update cycle")
			if runner.RunCycle(withCycleID(ctx, id)) == Disable {
				log.Warn("updates disabled until the configuration is fixed")
				done <- Disable
				return
			}
			log.Debugf("next update in %s", interval)

			select {
			case <-ctx.Done():
				done <- Continue
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}
