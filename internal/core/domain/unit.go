package domain

import (
	"fmt"
	"slices"
	"strings"
)

// TargetKind is the kind of compilation a unit performs.
type TargetKind string

const (
	// KindLib compiles a library target.
	KindLib TargetKind = "lib"
	// KindBin compiles a binary target.
	KindBin TargetKind = "bin"
	// KindTest compiles a test harness.
	KindTest TargetKind = "test"
	// KindBench compiles a benchmark harness.
	KindBench TargetKind = "bench"
	// KindExample compiles an example.
	KindExample TargetKind = "example"
	// KindCustomBuild compiles a package build script.
	KindCustomBuild TargetKind = "custom-build"
	// KindRunCustomBuild runs a compiled build script.
	KindRunCustomBuild TargetKind = "run-custom-build"
	// KindProcMacro compiles a procedural macro for the host.
	KindProcMacro TargetKind = "proc-macro"
)

var targetKinds = []TargetKind{
	KindLib, KindBin, KindTest, KindBench, KindExample,
	KindCustomBuild, KindRunCustomBuild, KindProcMacro,
}

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return slices.Contains(targetKinds, k)
}

// SourceKind describes where a package's source tree comes from.
type SourceKind string

const (
	// SourcePath is a local, editable package.
	SourcePath SourceKind = "path"
	// SourceRegistry is a package downloaded from a registry.
	SourceRegistry SourceKind = "registry"
	// SourceGit is a package checked out from a git repository.
	SourceGit SourceKind = "git"
	// SourceDirectory is a vendored package covered by a checksum manifest.
	SourceDirectory SourceKind = "directory"
)

// Immutable reports whether the source tree is never expected to change.
// Such packages are fingerprinted by their package checksum instead of a file scan.
func (s SourceKind) Immutable() bool {
	return s == SourceRegistry || s == SourceGit || s == SourceDirectory
}

// CompileMode is the platform a unit is compiled for.
type CompileMode string

// ModeHost compiles for the machine running the build (build scripts, proc macros).
const ModeHost CompileMode = "host"

const targetModePrefix = "target:"

// TargetMode returns the compile mode for a target triple.
func TargetMode(triple string) CompileMode {
	return CompileMode(targetModePrefix + triple)
}

// Valid reports whether m is host or target:<triple>.
func (m CompileMode) Valid() bool {
	if m == ModeHost {
		return true
	}
	triple, ok := strings.CutPrefix(string(m), targetModePrefix)
	return ok && triple != ""
}

// PanicStrategy is the panic runtime a profile selects.
type PanicStrategy string

const (
	// PanicUnwind unwinds the stack on panic.
	PanicUnwind PanicStrategy = "unwind"
	// PanicAbort aborts the process on panic.
	PanicAbort PanicStrategy = "abort"
)

// Profile holds the compilation settings of a build profile.
type Profile struct {
	Name      string            `json:"name" cbor:"name"`
	OptLevel  string            `json:"opt_level,omitempty" cbor:"opt_level"`
	DebugInfo string            `json:"debug_info,omitempty" cbor:"debug_info"`
	Panic     PanicStrategy     `json:"panic,omitempty" cbor:"panic"`
	LTO       string            `json:"lto,omitempty" cbor:"lto"`
	Settings  map[string]string `json:"settings,omitempty" cbor:"settings"`
}

// Hash returns a stable hash of every profile setting.
func (p Profile) Hash() string {
	if p.Panic == "" {
		p.Panic = PanicUnwind
	}
	return canonicalHash(p)
}

// PackageID identifies a package independently of where it is checked out.
type PackageID struct {
	Name    string `json:"name" cbor:"name"`
	Version string `json:"version" cbor:"version"`
	// Source distinguishes packages of the same name and version from different origins.
	Source string `json:"source,omitempty" cbor:"source"`
}

// String renders the package as "name vX.Y.Z".
func (p PackageID) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + " v" + p.Version
}

// Target names the crate target a unit builds.
type Target struct {
	Name string     `json:"name" cbor:"name"`
	Kind TargetKind `json:"kind" cbor:"kind"`
}

// Manifest holds the package metadata that is fingerprinted as a whole.
type Manifest struct {
	Authors     []string `cbor:"authors"`
	Description string   `cbor:"description"`
	Homepage    string   `cbor:"homepage"`
	Repository  string   `cbor:"repository"`
	License     string   `cbor:"license"`
	Links       string   `cbor:"links"`
}

// Dependency is an edge from a unit to a unit it consumes.
type Dependency struct {
	// Unit is the graph name of the dependency.
	Unit string
	// Name is the name the dependent refers to the dependency by.
	Name string
	// Public edges propagate rebuilds to the dependent.
	Public bool
}

// Unit is a single schedulable compilation action.
type Unit struct {
	Name    string
	Package PackageID
	Target  Target
	Profile Profile
	// Features is kept canonical: sorted and without duplicates.
	Features  []string
	Mode      CompileMode
	Channel   string
	Edition   string
	Rustflags []string
	Linker    string
	// Compiler is the compiler executable whose version identifies the toolchain.
	Compiler string
	Source   SourceKind
	// Checksum is the externally supplied package checksum of an immutable source.
	Checksum string
	// Root is the absolute package root. It never takes part in the unit's identity.
	Root string
	// Sources are glob patterns relative to Root.
	Sources []string
	// Outputs are artifact paths relative to the build dir. They may contain
	// the {stem} placeholder, see ArtifactStem.
	Outputs []string
	// DepInfo is the dependency-info file the command writes, relative to the
	// build dir. Units that declare none are fingerprinted by their sources alone.
	DepInfo      string
	Env          []string
	Dependencies []Dependency
	Command      []string
	Manifest     Manifest
}

// CanonicalFeatures returns a sorted copy of features without duplicates or empty names.
func CanonicalFeatures(features []string) []string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// StemPlaceholder is replaced by the artifact stem in output and dep-info paths.
const StemPlaceholder = "{stem}"

// OutputPaths returns the declared outputs with the artifact stem filled in.
func (u *Unit) OutputPaths(stem string) []string {
	out := make([]string, 0, len(u.Outputs))
	for _, o := range u.Outputs {
		out = append(out, strings.ReplaceAll(o, StemPlaceholder, stem))
	}
	return out
}

// DepInfoPath returns the declared dep-info path with the artifact stem filled in.
func (u *Unit) DepInfoPath(stem string) string {
	return strings.ReplaceAll(u.DepInfo, StemPlaceholder, stem)
}

// IsBuildScriptRun reports whether the unit runs a compiled build script.
func (u *Unit) IsBuildScriptRun() bool {
	return u.Target.Kind == KindRunCustomBuild
}

type canonicalMetadata struct {
	Name     string   `cbor:"name"`
	Version  string   `cbor:"version"`
	Manifest Manifest `cbor:"manifest"`
}

// MetadataHash returns the hash of the package metadata that invalidates the
// unit when edited: name, version, authors, description, links and so on.
func (u *Unit) MetadataHash() string {
	m := u.Manifest
	m.Authors = slices.Clone(m.Authors)
	return canonicalHash(canonicalMetadata{Name: u.Package.Name, Version: u.Package.Version, Manifest: m})
}

// Key returns the identity of the unit's stored fingerprint.
func (u *Unit) Key() UnitKey {
	return UnitKey{
		Package:     u.Package,
		Target:      u.Target,
		ProfileHash: u.Profile.Hash(),
		FeatureHash: canonicalHash(CanonicalFeatures(u.Features)),
		Mode:        u.Mode,
		Channel:     u.Channel,
	}
}

// UnitKey identifies a unit across builds and checkouts.
type UnitKey struct {
	Package     PackageID   `json:"package" cbor:"package"`
	Target      Target      `json:"target" cbor:"target"`
	ProfileHash string      `json:"profile_hash" cbor:"profile_hash"`
	FeatureHash string      `json:"feature_hash" cbor:"feature_hash"`
	Mode        CompileMode `json:"mode" cbor:"mode"`
	Channel     string      `json:"channel,omitempty" cbor:"channel"`
}

// Hash returns a stable 16 hex char digest of the key.
func (k UnitKey) Hash() string {
	return canonicalHash(k)
}

// String renders the key for diagnostics.
func (k UnitKey) String() string {
	return fmt.Sprintf("%s (%s %q, %s)", k.Package, k.Target.Kind, k.Target.Name, k.Mode)
}

// RecordDir is the per-package directory of the key below the fingerprint root.
func (k UnitKey) RecordDir() string {
	return k.Package.Name + "-" + k.Hash()
}

// RecordName is the base name of the key's record inside RecordDir.
func (k UnitKey) RecordName() string {
	return string(k.Target.Kind) + "-" + k.Target.Name
}
