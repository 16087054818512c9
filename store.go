package duckdns

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LegacyFileName is the file name used by the Windows Duck DNS Updater app.
const LegacyFileName = "duck_dns_updater_config.cfg"

// DefaultStorePath returns config.yaml inside the user's config directory.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error locating user config dir: %w", err)
	}
	return filepath.Join(dir, "duckdns", "config.yaml"), nil
}

// FileStore implements Store with a single YAML file.
//
// Files written by the Windows app ("domains|token|minutes") are still readable;
// the next Save rewrites them as YAML.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

type record struct {
	Domains         string `yaml:"domains"`
	Token           string `yaml:"token"`
	IntervalMinutes uint   `yaml:"interval_minutes"`
}

// Load implements duckdns.Store.
func (s *FileStore) Load(ctx context.Context) (Configuration, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Configuration{}, nil
	}
	if err != nil {
		return Configuration{}, fmt.Errorf("error reading %s: %w", s.path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return Configuration{}, nil
	}
	if looksLegacy(data) {
		if c, ok := parseLegacy(string(data)); ok {
			return c, nil
		}
	}

	var doc yaml.Node
	err = yaml.Unmarshal(data, &doc)
	if err != nil || !isMapping(&doc) {
		if c, ok := parseLegacy(string(data)); ok {
			return c, nil
		}
		if err != nil {
			return Configuration{}, fmt.Errorf("error parsing %s: %w", s.path, err)
		}
		return Configuration{}, fmt.Errorf("error parsing %s: expected a mapping of domains, token and interval_minutes", s.path)
	}

	var r record
	if err := doc.Decode(&r); err != nil {
		return Configuration{}, fmt.Errorf("error decoding %s: %w", s.path, err)
	}
	return Configuration{
		DomainNames: r.Domains,
		Token:       r.Token,
		Interval:    Interval(r.IntervalMinutes),
	}, nil
}

// Save implements duckdns.Store.
// The record is written to a temporary file and renamed into place.
func (s *FileStore) Save(ctx context.Context, c Configuration) error {
	data, err := yaml.Marshal(record{
		Domains:         c.DomainNames,
		Token:           c.Token,
		IntervalMinutes: c.Interval.Minutes(),
	})
	if err != nil {
		return fmt.Errorf("error encoding configuration: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("error creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	defer os.Remove(f.Name()) // no-op after a successful rename

	if err := f.Chmod(0600); err != nil {
		f.Close()
		return fmt.Errorf("error setting permissions on %s: %w", f.Name(), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", f.Name(), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("error syncing %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", f.Name(), err)
	}
	if err := os.Rename(f.Name(), s.path); err != nil {
		return fmt.Errorf("error replacing %s: %w", s.path, err)
	}
	return nil
}

func isMapping(doc *yaml.Node) bool {
	return doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode
}

var utf8BOM = []byte("\ufeff")

// looksLegacy reports whether data is a single "domains|token|minutes" line.
// Such a line can also be valid YAML ("home|tok: en|60"), so it is checked first.
func looksLegacy(data []byte) bool {
	line := bytes.TrimSpace(data)
	return !bytes.ContainsAny(line, "\r\n") && bytes.Count(line, []byte("|")) >= 2 && line[0] != '{'
}

// parseLegacy reads the positional "domains|token|minutes" format.
func parseLegacy(s string) (Configuration, bool) {
	fields := strings.Split(strings.TrimSpace(s), "|")
	if len(fields) < 2 {
		return Configuration{}, false
	}
	c := Configuration{DomainNames: fields[0], Token: fields[1]}
	if len(fields) > 2 {
		if n, err := strconv.ParseUint(fields[2], 10, 32); err == nil {
			c.Interval = Interval(n)
		}
	}
	return c, true
}
