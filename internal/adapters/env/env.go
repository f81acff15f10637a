// Package env provides environment variable lookups.
package env

import (
	"os"
	"strings"

	"go.trai.ch/fresh/internal/core/ports"
)

var (
	_ ports.EnvLookup = (*Process)(nil)
	_ ports.EnvLookup = Map(nil)
)

// Process looks variables up in the environment of the running process.
type Process struct{}

// NewProcess creates a new Process lookup.
func NewProcess() *Process {
	return &Process{}
}

// LookupEnv implements ports.EnvLookup.
func (p *Process) LookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Map is a fixed set of variables.
type Map map[string]string

// FromEnviron builds a Map from "KEY=VALUE" entries. Later entries win.
func FromEnviron(environ []string) Map {
	m := make(Map, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			m[k] = v
		}
	}
	return m
}

// LookupEnv implements ports.EnvLookup.
func (m Map) LookupEnv(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
