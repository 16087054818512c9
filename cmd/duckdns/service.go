package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/Travis-Britz/duckdns"
	"github.com/kardianos/service"
)

// program implements service.Interface around duckdns.RunDaemon.
type program struct {
	app     *app
	cancel  context.CancelFunc
	stopped chan struct{}
}

func (p *program) Start(s service.Service) error {
	u, err := p.app.newUpdater()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.stopped = make(chan struct{})

	interval := p.app.interval(ctx)
	p.app.log.Infof("updating every %s", interval)
	p.app.warnPermissions()

	done := duckdns.RunDaemon(ctx, u, interval.Duration(), p.app.log)
	go func() {
		defer close(p.stopped)
		if <-done == duckdns.Disable {
			// the service keeps running idle; configure restarts it
			p.app.log.Warn(`updates paused; run "duckdns configure" to resume`)
			<-ctx.Done()
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	<-p.stopped
	p.app.log.Info("stopped")
	return nil
}

// interval returns the saved refresh interval, or Every15Minutes when none is usable.
func (a *app) interval(ctx context.Context) duckdns.Interval {
	c, err := a.store.Load(ctx)
	if err != nil || !c.Interval.Valid() {
		return duckdns.Every15Minutes
	}
	return c.Interval
}

func (a *app) runService(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Parse(args)

	m, err := a.manager()
	if err != nil {
		return err
	}
	return m.Run()
}

func (a *app) update(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	fs.Parse(args)

	u, err := a.newUpdater()
	if err != nil {
		return err
	}
	a.warnPermissions()
	if u.RunCycle(context.Background()) == duckdns.Disable {
		return errNotConfigured
	}
	return nil
}

func (a *app) install(args []string) error {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	fs.Parse(args)

	if c, err := a.store.Load(context.Background()); err == nil && !c.Valid() {
		fmt.Println(`Warning: not configured yet; run "duckdns configure".`)
	}
	m, err := a.manager()
	if err != nil {
		return err
	}
	if err := m.Enable(); err != nil {
		return err
	}
	st, _ := m.State()
	fmt.Println(st.Message())
	return nil
}

func (a *app) uninstall(args []string) error {
	fs := flag.NewFlagSet("uninstall", flag.ExitOnError)
	fs.Parse(args)

	m, err := a.manager()
	if err != nil {
		return err
	}
	if err := m.Disable(); err != nil {
		return err
	}
	fmt.Println("Duck DNS Updater will no longer start automatically.")
	return nil
}

func (a *app) status(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Parse(args)

	c, err := a.store.Load(context.Background())
	if err != nil {
		fmt.Printf("Configuration: unreadable (%s)\n", err)
	} else {
		fmt.Print(describe(a.store.Path(), c))
	}

	m, err := a.manager()
	if err != nil {
		return err
	}
	st, err := m.State()
	fmt.Printf("Startup:       %s\n", st)
	fmt.Println(st.Message())
	if err != nil {
		a.log.WithError(err).Debug("service status")
	}
	return nil
}
