package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/Travis-Britz/duckdns"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

func (a *app) configure(args []string) error {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	domains := fs.String("d", "", "comma separated Duck DNS subdomains")
	token := fs.String("t", "", "Duck DNS account token")
	interval := fs.String("i", "", `refresh interval, e.g. "30 minutes", 60 or 2h`)
	fs.Parse(args)

	ctx := context.Background()
	current, err := a.store.Load(ctx)
	if err != nil {
		a.log.WithError(err).Warn("existing configuration could not be read; starting fresh")
		current = duckdns.Configuration{}
	}

	p := prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	c, err := p.complete(current, *domains, *token, *interval)
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, c); err != nil {
		return fmt.Errorf("error saving configuration: %w", err)
	}
	fmt.Printf("Saved to %s\n", a.store.Path())

	var svc restarter
	if m, err := a.manager(); err != nil {
		a.log.WithError(err).Warn("service manager unavailable")
	} else {
		svc = m
	}
	return afterSave(ctx, c, svc, func() (duckdns.Runner, error) {
		u, err := a.newUpdater()
		if err != nil {
			return nil, err
		}
		return u, nil
	}, a.log, os.Stdout)
}

// restarter is the part of startup.Manager that afterSave needs.
type restarter interface {
	Restart() (bool, error)
}

// afterSave applies a just-saved configuration: an installed service is restarted and runs its first cycle itself,
// otherwise exactly one cycle runs here. A nil svc counts as not installed.
func afterSave(ctx context.Context, c duckdns.Configuration, svc restarter, newRunner func() (duckdns.Runner, error), log logrus.FieldLogger, out io.Writer) error {
	if svc != nil {
		restarted, err := svc.Restart()
		if err != nil {
			log.WithError(err).Warn("unable to restart service")
		}
		if restarted {
			fmt.Fprintf(out, "Service restarted; updating every %s.\n", c.Interval)
			return nil
		}
	}

	r, err := newRunner()
	if err != nil {
		return err
	}
	if r.RunCycle(ctx) == duckdns.Disable {
		return errNotConfigured
	}
	return nil
}

// prompter fills in whatever the command line left out.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// readSecret reads without echo; nil means read a plain line
	readSecret func() (string, error)
}

func (p prompter) complete(current duckdns.Configuration, domains, token, interval string) (duckdns.Configuration, error) {
	c := current
	var err error

	if domains == "" {
		domains, err = p.ask("Domains", current.DomainNames)
		if err != nil {
			return c, err
		}
	}
	c.DomainNames = normalizeDomains(domains)

	if token == "" {
		token, err = p.askSecret("Token", current.Token)
		if err != nil {
			return c, err
		}
	}
	c.Token = strings.TrimSpace(token)

	if !c.Valid() {
		return c, errors.New("domains and token are both required")
	}

	fallback := current.Interval
	if !fallback.Valid() {
		fallback = duckdns.Every15Minutes
	}
	if interval == "" {
		fmt.Fprintf(p.out, "Refresh intervals: %s\n", intervalChoices())
		interval, err = p.ask("Interval", fallback.String())
		if err != nil {
			return c, err
		}
	}
	c.Interval, err = duckdns.ParseInterval(interval)
	if err != nil {
		return c, fmt.Errorf("%w (choose one of: %s)", err, intervalChoices())
	}
	return c, nil
}

func (p prompter) ask(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.readLine()
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", strings.ToLower(label), err)
	}
	if line = strings.TrimSpace(line); line == "" {
		return current, nil
	}
	return line, nil
}

func (p prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return line, err
}

func (p prompter) askSecret(label, current string) (string, error) {
	read := p.readSecret
	if read == nil {
		read = p.readLine
		if term.IsTerminal(int(os.Stdin.Fd())) {
			read = func() (string, error) {
				b, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(p.out)
				return string(b), err
			}
		}
	}
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, mask(current))
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	s, err := read()
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", strings.ToLower(label), err)
	}
	if s = strings.TrimSpace(s); s == "" {
		return current, nil
	}
	return s, nil
}

// normalizeDomains trims each entry and any ".duckdns.org" suffix, which the API does not expect.
func normalizeDomains(s string) string {
	var out []string
	for _, d := range strings.Split(s, ",") {
		d = strings.TrimSpace(d)
		d = strings.TrimSuffix(strings.ToLower(d), ".duckdns.org")
		if d != "" {
			out = append(out, d)
		}
	}
	return strings.Join(out, ",")
}

func intervalChoices() string {
	labels := make([]string, len(duckdns.Intervals))
	for i, iv := range duckdns.Intervals {
		labels[i] = iv.String()
	}
	return strings.Join(labels, ", ")
}

// mask hides all but the last four characters of a token.
func mask(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

func describe(path string, c duckdns.Configuration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Configuration: %s\n", path)
	if !c.Valid() {
		fmt.Fprintln(&b, "Domains:       (not configured)")
		return b.String()
	}
	fmt.Fprintf(&b, "Domains:       %s\n", c.DomainNames)
	fmt.Fprintf(&b, "Token:         %s\n", mask(c.Token))
	fmt.Fprintf(&b, "Interval:      %s\n", c.Interval)
	return b.String()
}

// warnPermissions logs when the configuration file, which holds the token, is readable by others.
func (a *app) warnPermissions() {
	if runtime.GOOS == "windows" {
		return
	}
	if err := verifyPermissions(a.store.Path()); err != nil {
		a.log.Warn(err)
	}
}

func verifyPermissions(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking configuration permissions: %w", err)
	}
	// 0400 is also fine; the file may be provisioned read-only
	perms := info.Mode().Perm()
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for %q: expected %q; found %q", path, fs.FileMode(0600), perms)
	}
	return nil
}
