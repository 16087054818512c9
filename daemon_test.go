package duckdns_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Travis-Britz/duckdns"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitResult(t *testing.T, done <-chan duckdns.Result) duckdns.Result {
	t.Helper()
	select {
	case r, ok := <-done:
		require.True(t, ok, "channel closed without a result")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
	return duckdns.Continue
}

func TestRunDaemonRunsImmediatelyAndOnTick(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := duckdns.RunnerFunc(func(context.Context) duckdns.Result {
		if runs.Add(1) == 3 {
			cancel()
		}
		return duckdns.Continue
	})
	done := duckdns.RunDaemon(ctx, r, 10*time.Millisecond, nil)

	assert.Equal(t, duckdns.Continue, waitResult(t, done))
	assert.Equal(t, int32(3), runs.Load())
	_, open := <-done
	assert.False(t, open)
}

func TestRunDaemonStopsOnDisable(t *testing.T) {
	var runs atomic.Int32
	r := duckdns.RunnerFunc(func(context.Context) duckdns.Result {
		if runs.Add(1) == 2 {
			return duckdns.Disable
		}
		return duckdns.Continue
	})

	done := duckdns.RunDaemon(context.Background(), r, 10*time.Millisecond, nil)

	assert.Equal(t, duckdns.Disable, waitResult(t, done))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load(), "no cycles after Disable")
}

func TestRunDaemonFirstCycleIsImmediate(t *testing.T) {
	started := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	r := duckdns.RunnerFunc(func(context.Context) duckdns.Result {
		select {
		case started <- struct{}{}:
		default:
		}
		return duckdns.Continue
	})

	done := duckdns.RunDaemon(ctx, r, time.Hour, nil)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first cycle did not run before the first tick")
	}
	cancel()
	assert.Equal(t, duckdns.Continue, waitResult(t, done))
}

func TestRunDaemonCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var runs atomic.Int32
	r := duckdns.RunnerFunc(func(context.Context) duckdns.Result {
		runs.Add(1)
		return duckdns.Continue
	})

	assert.Equal(t, duckdns.Continue, waitResult(t, duckdns.RunDaemon(ctx, r, time.Hour, nil)))
	assert.Zero(t, runs.Load())
}

func TestRunDaemonTagsCycles(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r := duckdns.RunnerFunc(func(context.Context) duckdns.Result { return duckdns.Disable })

	waitResult(t, duckdns.RunDaemon(context.Background(), r, time.Hour, logger))

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	id, ok := entries[0].Data["cycle"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36)
}

func TestRunDaemonPassesCycleToUpdater(t *testing.T) {
	srv := newDuckServer(t, 200, "OK\n203.0.113.7\n\nNOCHANGE")
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	store := &memStore{c: configured}
	u := newUpdater(t, store, srv, &recorder{}, duckdns.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := duckdns.RunDaemon(ctx, u, time.Hour, logger)
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "public IP unchanged" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	cancel()
	waitResult(t, done)

	var request, unchanged bool
	for _, e := range hook.AllEntries() {
		_, tagged := e.Data["cycle"]
		switch {
		case strings.HasPrefix(e.Message, "sending update request"):
			request = true
			assert.True(t, tagged, "request log line carries the cycle id")
		case e.Message == "public IP unchanged":
			unchanged = true
			assert.True(t, tagged, "outcome log line carries the cycle id")
		}
	}
	assert.True(t, request)
	assert.True(t, unchanged)
	assert.Equal(t, 1, srv.hits())
}
