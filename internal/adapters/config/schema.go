package config

// Freshfile represents the structure of the fresh.yaml configuration file.
type Freshfile struct {
	Version  string                `yaml:"version"`
	Root     string                `yaml:"root"`
	Members  []string              `yaml:"members"`
	Defaults DefaultsDTO           `yaml:"defaults"`
	Profiles map[string]ProfileDTO `yaml:"profiles" validate:"dive"`
	Units    map[string]*UnitDTO   `yaml:"units" validate:"dive"`
}

// DefaultsDTO holds settings inherited by every unit that does not set them.
type DefaultsDTO struct {
	Compiler  string   `yaml:"compiler"`
	Channel   string   `yaml:"channel"`
	Edition   string   `yaml:"edition"`
	Mode      string   `yaml:"mode" validate:"omitempty,compilemode"`
	Profile   string   `yaml:"profile"`
	Linker    string   `yaml:"linker"`
	Rustflags []string `yaml:"rustflags"`
	Env       []string `yaml:"env"`
}

// ProfileDTO represents a named build profile.
type ProfileDTO struct {
	OptLevel  string            `yaml:"optLevel"`
	DebugInfo string            `yaml:"debugInfo"`
	Panic     string            `yaml:"panic" validate:"omitempty,oneof=unwind abort"`
	LTO       string            `yaml:"lto"`
	Settings  map[string]string `yaml:"settings"`
}

// PackageDTO identifies the package a unit belongs to.
type PackageDTO struct {
	Name     string `yaml:"name" validate:"required"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Kind     string `yaml:"kind" validate:"omitempty,oneof=path registry git directory"`
	Checksum string `yaml:"checksum"`
}

// TargetDTO names the target a unit compiles.
type TargetDTO struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind" validate:"required,oneof=lib bin test bench example custom-build run-custom-build proc-macro"`
}

// DependencyDTO is an edge to another unit.
type DependencyDTO struct {
	Unit   string `yaml:"unit" validate:"required"`
	Name   string `yaml:"name"`
	Public *bool  `yaml:"public"`
}

// ManifestDTO carries the package metadata that is fingerprinted.
type ManifestDTO struct {
	Authors     []string `yaml:"authors"`
	Description string   `yaml:"description"`
	Homepage    string   `yaml:"homepage"`
	Repository  string   `yaml:"repository"`
	License     string   `yaml:"license"`
	Links       string   `yaml:"links"`
}

// UnitDTO represents a unit definition in the configuration.
type UnitDTO struct {
	Package   PackageDTO      `yaml:"package"`
	Target    TargetDTO       `yaml:"target"`
	Profile   string          `yaml:"profile"`
	Features  []string        `yaml:"features"`
	Mode      string          `yaml:"mode" validate:"omitempty,compilemode"`
	Channel   string          `yaml:"channel"`
	Edition   string          `yaml:"edition"`
	Rustflags []string        `yaml:"rustflags"`
	Linker    string          `yaml:"linker"`
	Compiler  string          `yaml:"compiler"`
	Root      string          `yaml:"root"`
	Sources   []string        `yaml:"sources"`
	Outputs   []string        `yaml:"outputs"`
	DepInfo   string          `yaml:"depInfo"`
	Env       []string        `yaml:"env"`
	DependsOn []DependencyDTO `yaml:"dependsOn" validate:"dive"`
	Cmd       []string        `yaml:"cmd"`
	Manifest  ManifestDTO     `yaml:"manifest"`
}
