package duckdns

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Title is shown on every notification.
const Title = "Duck DNS Updater"

// DefaultExpiry is how long a notification stays relevant unless a caller says otherwise.
const DefaultExpiry = 15 * time.Minute

// Configuration is the saved Duck DNS account record.
type Configuration struct {
	DomainNames string   // comma separated Duck DNS subdomains
	Token       string   // account token
	Interval    Interval // refresh period
}

// Valid reports whether both the domain list and the token are set.
func (c Configuration) Valid() bool {
	return c.DomainNames != "" && c.Token != ""
}

// Notification is a single user-facing message.
type Notification struct {
	Title   string
	Message string
	Expiry  time.Duration
}

// Interval is a refresh period in minutes.
// Only the members of Intervals are valid.
type Interval uint

const (
	Every15Minutes Interval = 15
	Every30Minutes Interval = 30
	EveryHour      Interval = 60
	Every2Hours    Interval = 2 * 60
	Every5Hours    Interval = 5 * 60
	Every10Hours   Interval = 10 * 60
	EveryDay       Interval = 24 * 60
)

// Intervals lists the selectable refresh periods, shortest first.
var Intervals = []Interval{
	Every15Minutes,
	Every30Minutes,
	EveryHour,
	Every2Hours,
	Every5Hours,
	Every10Hours,
	EveryDay,
}

var intervalLabels = map[Interval]string{
	Every15Minutes: "15 minutes",
	Every30Minutes: "30 minutes",
	EveryHour:      "1 hour",
	Every2Hours:    "2 hours",
	Every5Hours:    "5 hours",
	Every10Hours:   "10 hours",
	EveryDay:       "1 day",
}

var ErrInvalidInterval = errors.New("not a supported refresh interval")

// Minutes returns the interval as a minute count.
func (i Interval) Minutes() uint { return uint(i) }

func (i Interval) Duration() time.Duration { return time.Duration(i) * time.Minute }

// Valid reports whether i is one of Intervals.
func (i Interval) Valid() bool {
	_, ok := intervalLabels[i]
	return ok
}

func (i Interval) String() string {
	if l, ok := intervalLabels[i]; ok {
		return l
	}
	return fmt.Sprintf("%d minutes", uint(i))
}

// ParseInterval accepts a label ("2 hours"), a minute count ("120") or a Go duration ("2h").
// The result must be one of Intervals.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	for i, l := range intervalLabels {
		if strings.EqualFold(s, l) {
			return i, nil
		}
	}
	var i Interval
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		i = Interval(n)
	} else if d, err := time.ParseDuration(s); err == nil && d%time.Minute == 0 && d > 0 {
		i = Interval(d / time.Minute)
	} else {
		return 0, fmt.Errorf("parse interval %q: %w", s, ErrInvalidInterval)
	}
	if !i.Valid() {
		return 0, fmt.Errorf("parse interval %q: %w", s, ErrInvalidInterval)
	}
	return i, nil
}
