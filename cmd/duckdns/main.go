// Command duckdns keeps Duck DNS domains pointed at this machine.
//
// Usage:
//
//	duckdns [run]          run the updater in the foreground or as the service
//	duckdns update         make one update attempt now
//	duckdns configure      set domains, token and refresh interval
//	duckdns install        start automatically at login
//	duckdns uninstall      stop starting automatically
//	duckdns status         show the configuration and startup state
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Travis-Britz/duckdns"
	"github.com/Travis-Britz/duckdns/internal/logging"
	"github.com/Travis-Britz/duckdns/internal/settings"
	"github.com/Travis-Britz/duckdns/internal/startup"
	"github.com/Travis-Britz/duckdns/notify"
	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "duckdns: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	a, err := newApp(cmd == "run" && !service.Interactive())
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "run":
		return a.runService(args)
	case "update":
		return a.update(args)
	case "configure":
		return a.configure(args)
	case "install":
		return a.install(args)
	case "uninstall":
		return a.uninstall(args)
	case "status":
		return a.status(args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// app holds what every subcommand needs.
type app struct {
	settings *settings.Settings
	log      *logrus.Logger
	closer   io.Closer
	store    *duckdns.FileStore
}

func newApp(background bool) (*app, error) {
	dir, err := settings.Dir()
	if err != nil {
		return nil, err
	}
	s, err := settings.Load(dir)
	if err != nil {
		return nil, err
	}
	logFile := s.LogFile
	if logFile == "" && background {
		logFile = filepath.Join(dir, "duckdns.log")
	}
	log, closer, err := logging.New(s.LogLevel, logFile)
	if err != nil {
		return nil, err
	}
	return &app{
		settings: s,
		log:      log,
		closer:   closer,
		store:    duckdns.NewFileStore(s.Store),
	}, nil
}

func (a *app) close() {
	_ = a.closer.Close()
}

func (a *app) notifier() duckdns.Notifier {
	sinks := []duckdns.Notifier{notify.Log(a.log)}
	if a.settings.Notify.Desktop {
		sinks = append(sinks, notify.NewDesktop())
	}
	if tg := a.settings.Notify.Telegram; tg.Enabled() {
		t, err := notify.NewTelegram(tg.Token, tg.ChatID)
		if err != nil {
			a.log.WithError(err).Warn("telegram notifications disabled")
		} else {
			sinks = append(sinks, t)
		}
	}
	return notify.Multi(sinks...)
}

func (a *app) newUpdater() (*duckdns.Updater, error) {
	s := a.settings
	options := []duckdns.Option{
		duckdns.WithLogger(a.log),
		duckdns.UsingNotifier(a.notifier()),
		duckdns.UsingBaseURL(s.BaseURL),
	}
	switch {
	case len(s.Resolver.URLs) > 0:
		options = append(options, duckdns.UsingWebResolver(s.Resolver.URLs...))
	case len(s.Resolver.Interfaces) > 0:
		options = append(options, duckdns.UsingResolver(duckdns.InterfaceResolver(s.Resolver.Interfaces...)))
	}
	if s.Cloudflare.Enabled() {
		options = append(options, duckdns.UsingCloudflare(s.Cloudflare.Token, s.Cloudflare.Record))
	}

	u, err := duckdns.New(a.store, options...)
	if err != nil {
		return nil, fmt.Errorf("error creating updater: %w", err)
	}
	return u, nil
}

func (a *app) manager() (*startup.Manager, error) {
	return startup.New(&program{app: a}, "run")
}

var errNotConfigured = errors.New(`configuration invalid; run "duckdns configure"`)
