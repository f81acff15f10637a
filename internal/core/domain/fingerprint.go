package domain

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Toolchain is the compiler's self-identification.
type Toolchain struct {
	// Verbose is the complete verbose version output. Two nightlies that share
	// a displayed version still differ here.
	Verbose    string `json:"verbose"`
	Release    string `json:"release,omitempty"`
	CommitHash string `json:"commit_hash,omitempty"`
	Host       string `json:"host,omitempty"`
	Channel    string `json:"channel,omitempty"`
}

// ID returns a short stable hash of the full verbose identification.
func (t Toolchain) ID() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(t.Verbose))
}

// EnvValue is the captured state of an environment variable. An unset
// variable differs from one set to the empty string, and values are compared
// byte for byte.
type EnvValue struct {
	Set   bool   `json:"set"`
	Value []byte `json:"value,omitempty"`
}

// UnsetEnv is the value of a variable that is not present.
func UnsetEnv() EnvValue {
	return EnvValue{}
}

// SetEnv is the value of a variable that is present.
func SetEnv(value string) EnvValue {
	return EnvValue{Set: true, Value: []byte(value)}
}

// Equal reports whether both values are byte-identical and equally set.
func (v EnvValue) Equal(o EnvValue) bool {
	return v.Set == o.Set && bytes.Equal(v.Value, o.Value)
}

// EnvVar is a referenced environment variable and its captured value.
type EnvVar struct {
	Name  string   `json:"name"`
	Value EnvValue `json:"value"`
}

// RerunTriggers are the change triggers a build script declared on its last successful run.
type RerunTriggers struct {
	// Paths are the rerun-if-changed paths, relative to the package root.
	Paths []string `json:"paths,omitempty"`
	// Env holds the rerun-if-env-changed variables with their values at that run.
	Env []EnvVar `json:"env,omitempty"`
}

// IsZero reports whether no trigger was declared.
func (r RerunTriggers) IsZero() bool {
	return len(r.Paths) == 0 && len(r.Env) == 0
}

// DepFingerprint records the committed fingerprint hash of a dependency.
type DepFingerprint struct {
	// Unit is the dependency's graph name.
	Unit string `json:"unit"`
	// Name is the name the dependent refers to the dependency by.
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	Public bool   `json:"public"`
}

// Fingerprint is everything that can invalidate a unit's output.
type Fingerprint struct {
	Toolchain     Toolchain        `json:"toolchain"`
	Rustflags     []string         `json:"rustflags,omitempty"`
	Linker        string           `json:"linker,omitempty"`
	Features      []string         `json:"features,omitempty"`
	ProfileHash   string           `json:"profile_hash"`
	Edition       string           `json:"edition,omitempty"`
	MetadataHash  string           `json:"metadata_hash"`
	Precalculated string           `json:"precalculated,omitempty"`
	LocalInputs   []LocalInput     `json:"local_inputs,omitempty"`
	EnvVars       []EnvVar         `json:"env_vars,omitempty"`
	RerunTriggers RerunTriggers    `json:"rerun_triggers,omitzero"`
	Deps          []DepFingerprint `json:"deps,omitempty"`
}

// Normalize sorts every order-insensitive list in place so that equal
// fingerprints compare and hash equally.
func (f *Fingerprint) Normalize() {
	f.Features = CanonicalFeatures(f.Features)
	slices.SortFunc(f.LocalInputs, func(a, b LocalInput) int {
		return strings.Compare(a.Key(), b.Key())
	})
	f.LocalInputs = slices.CompactFunc(f.LocalInputs, func(a, b LocalInput) bool {
		return a.Key() == b.Key()
	})
	sortEnv(f.EnvVars)
	sortEnv(f.RerunTriggers.Env)
	slices.SortFunc(f.Deps, func(a, b DepFingerprint) int {
		return strings.Compare(a.Name+"\x00"+a.Unit, b.Name+"\x00"+b.Unit)
	})
}

func sortEnv(vars []EnvVar) {
	slices.SortFunc(vars, func(a, b EnvVar) int {
		return strings.Compare(a.Name, b.Name)
	})
}

type canonicalInput struct {
	Base    PathBase `cbor:"base"`
	Path    string   `cbor:"path"`
	Size    int64    `cbor:"size"`
	Content string   `cbor:"content"`
}

type canonicalEnv struct {
	Name  string `cbor:"name"`
	Set   bool   `cbor:"set"`
	Value []byte `cbor:"value"`
}

type canonicalDep struct {
	Name string `cbor:"name"`
	Hash string `cbor:"hash"`
}

type canonicalFingerprint struct {
	Toolchain     string           `cbor:"toolchain"`
	Rustflags     []string         `cbor:"rustflags"`
	Linker        string           `cbor:"linker"`
	Features      []string         `cbor:"features"`
	ProfileHash   string           `cbor:"profile"`
	Edition       string           `cbor:"edition"`
	MetadataHash  string           `cbor:"metadata"`
	Precalculated string           `cbor:"precalculated"`
	LocalInputs   []canonicalInput `cbor:"local"`
	EnvVars       []canonicalEnv   `cbor:"env"`
	RerunPaths    []string         `cbor:"rerun_paths"`
	RerunEnv      []canonicalEnv   `cbor:"rerun_env"`
	Deps          []canonicalDep   `cbor:"deps"`
}

// Hash returns the structural hash of the fingerprint. Detection mode and
// ordering do not take part: an input is identified by its location and size
// plus its digest when one was recorded, or its modification time otherwise.
// Only public dependencies contribute their hashes.
func (f Fingerprint) Hash() string {
	n := f.clone()
	n.Normalize()

	c := canonicalFingerprint{
		Toolchain:     n.Toolchain.ID(),
		Rustflags:     n.Rustflags,
		Linker:        n.Linker,
		Features:      n.Features,
		ProfileHash:   n.ProfileHash,
		Edition:       n.Edition,
		MetadataHash:  n.MetadataHash,
		Precalculated: n.Precalculated,
		RerunPaths:    n.RerunTriggers.Paths,
		EnvVars:       canonicalEnvs(n.EnvVars),
		RerunEnv:      canonicalEnvs(n.RerunTriggers.Env),
	}
	for _, in := range n.LocalInputs {
		ci := canonicalInput{Base: in.Base, Path: in.Path, Size: in.Size}
		switch {
		case in.Missing:
			ci.Content = "missing"
		case in.Digest != nil:
			ci.Content = in.Digest.String()
		default:
			ci.Content = fmt.Sprintf("mtime=%d", in.ModTime.UnixNano())
		}
		c.LocalInputs = append(c.LocalInputs, ci)
	}
	for _, d := range n.Deps {
		cd := canonicalDep{Name: d.Name}
		if d.Public {
			cd.Hash = d.Hash
		}
		c.Deps = append(c.Deps, cd)
	}
	return canonicalHash(c)
}

func canonicalEnvs(vars []EnvVar) []canonicalEnv {
	out := make([]canonicalEnv, 0, len(vars))
	for _, v := range vars {
		out = append(out, canonicalEnv{Name: v.Name, Set: v.Value.Set, Value: v.Value.Value})
	}
	return out
}

func (f Fingerprint) clone() Fingerprint {
	c := f
	c.Rustflags = slices.Clone(f.Rustflags)
	c.Features = slices.Clone(f.Features)
	c.LocalInputs = slices.Clone(f.LocalInputs)
	c.EnvVars = slices.Clone(f.EnvVars)
	c.RerunTriggers.Paths = slices.Clone(f.RerunTriggers.Paths)
	c.RerunTriggers.Env = slices.Clone(f.RerunTriggers.Env)
	c.Deps = slices.Clone(f.Deps)
	return c
}

// ArtifactStem returns the file stem for a unit's outputs. The toolchain
// identity is part of the stem so that artifacts built by different compilers
// never collide.
func ArtifactStem(key UnitKey, toolchain Toolchain) string {
	h := xxhash.New()
	_, _ = h.WriteString(key.Hash())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(toolchain.ID())
	return fmt.Sprintf("%s-%016x", strings.ReplaceAll(key.Target.Name, "-", "_"), h.Sum64())
}
