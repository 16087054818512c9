// Package startup registers the updater to start with the user's session.
package startup

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Travis-Britz/duckdns"
	"github.com/kardianos/service"
)

// Name is the service name registered with the OS.
const Name = "duckdns"

// State describes whether the updater will run at login.
type State int

const (
	// Disabled means the updater is not registered and can be enabled.
	Disabled State = iota
	// Enabled means the updater is registered and running.
	Enabled
	// DisabledByUser means the updater is registered but was stopped.
	DisabledByUser
	// DisabledByPolicy means the OS refused to tell us or to let us register.
	DisabledByPolicy
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case DisabledByUser:
		return "disabled by user"
	case DisabledByPolicy:
		return "disabled by policy"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Message is the text shown to the user for s.
func (s State) Message() string {
	switch s {
	case Enabled:
		return "Duck DNS Updater starts automatically and is running."
	case DisabledByUser:
		return "Duck DNS Updater was stopped. Run \"duckdns install\" to turn automatic updates back on."
	case DisabledByPolicy:
		return "Automatic start is not permitted on this system."
	}
	return "Duck DNS Updater does not start automatically. Run \"duckdns install\" to enable it."
}

// controller is the part of service.Service this package drives.
type controller interface {
	Run() error
	Start() error
	Stop() error
	Restart() error
	Install() error
	Uninstall() error
	Status() (service.Status, error)
}

// Manager registers, controls and hosts the updater as a per-user service.
type Manager struct {
	svc controller
}

// New describes the service. prg is what Run hosts; arguments are passed to the executable when the OS starts it.
func New(prg service.Interface, arguments ...string) (*Manager, error) {
	svc, err := service.New(prg, &service.Config{
		Name:        Name,
		DisplayName: duckdns.Title,
		Description: "Keeps Duck DNS domains pointed at this machine's public IP address.",
		Arguments:   arguments,
		Option: service.KeyValue{
			"UserService": true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating service: %w", err)
	}
	return &Manager{svc: svc}, nil
}

// Enable registers the service and starts it.
func (m *Manager) Enable() error {
	st, err := m.State()
	if err != nil && st != Disabled {
		return err
	}
	switch st {
	case Enabled:
		return nil
	case DisabledByPolicy:
		return errors.New("registering for startup is not permitted")
	case Disabled:
		if err := m.svc.Install(); err != nil {
			return fmt.Errorf("error installing service: %w", err)
		}
	}
	if err := m.svc.Start(); err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}
	return nil
}

// Disable stops and unregisters the service. It is not an error if it was never registered.
func (m *Manager) Disable() error {
	st, _ := m.State()
	if st == Disabled {
		return nil
	}
	if st == Enabled {
		if err := m.svc.Stop(); err != nil {
			return fmt.Errorf("error stopping service: %w", err)
		}
	}
	if err := m.svc.Uninstall(); err != nil {
		return fmt.Errorf("error uninstalling service: %w", err)
	}
	return nil
}

// Restart restarts a registered service so it rereads its configuration.
// It reports false without error when the service is not registered.
func (m *Manager) Restart() (bool, error) {
	st, _ := m.State()
	switch st {
	case Disabled, DisabledByPolicy:
		return false, nil
	case DisabledByUser:
		if err := m.svc.Start(); err != nil {
			return false, fmt.Errorf("error starting service: %w", err)
		}
		return true, nil
	}
	if err := m.svc.Restart(); err != nil {
		return false, fmt.Errorf("error restarting service: %w", err)
	}
	return true, nil
}

// State reports the current registration state.
// The error is informational; the returned State is always usable.
func (m *Manager) State() (State, error) {
	status, err := m.svc.Status()
	return stateFrom(status, err)
}

// Run hosts the program until the OS or an interrupt stops it.
func (m *Manager) Run() error {
	return m.svc.Run()
}

func stateFrom(status service.Status, err error) (State, error) {
	switch {
	case errors.Is(err, service.ErrNotInstalled):
		return Disabled, nil
	case errors.Is(err, fs.ErrPermission), errors.Is(err, service.ErrNoServiceSystemDetected):
		return DisabledByPolicy, err
	case err != nil:
		return Disabled, fmt.Errorf("error querying service status: %w", err)
	}
	switch status {
	case service.StatusRunning:
		return Enabled, nil
	case service.StatusStopped:
		return DisabledByUser, nil
	}
	return Disabled, nil
}
