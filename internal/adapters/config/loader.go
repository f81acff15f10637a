// Package config loads the unit graph from fresh.yaml and the global settings.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger   ports.Logger
	validate *validator.Validate
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	v := validator.New()
	_ = v.RegisterValidation("compilemode", func(fl validator.FieldLevel) bool {
		return domain.CompileMode(fl.Field().String()).Valid()
	})
	return &Loader{Logger: logger, validate: v}
}

// AllUnits selects every unit of the graph on the command line.
const AllUnits = "all"

var validUnitNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.+:-]+$`)

var builtinProfiles = map[string]ProfileDTO{
	"dev":     {OptLevel: "0", DebugInfo: "2"},
	"release": {OptLevel: "3", DebugInfo: "0"},
}

const defaultProfile = "dev"

// DiscoverRoot walks up from cwd and returns the directory holding the nearest fresh.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	path, err := findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// Load reads the fresh.yaml found from cwd and returns the unit graph.
func (l *Loader) Load(cwd string) (*domain.Graph, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var freshfile Freshfile
	if err := l.readFreshfile(configPath, &freshfile); err != nil {
		return nil, err
	}

	g := domain.NewGraph()
	root := resolveRoot(configPath, freshfile.Root)
	g.SetRoot(root)

	profiles := mergeProfiles(builtinProfiles, freshfile.Profiles)
	if err := l.addUnits(g, &freshfile, filepath.Dir(configPath), freshfile.Defaults, profiles); err != nil {
		return nil, err
	}

	memberPaths, err := resolveMemberPaths(root, freshfile.Members)
	if err != nil {
		return nil, err
	}
	for _, memberPath := range memberPaths {
		if err := l.loadMember(g, root, memberPath, freshfile.Defaults, profiles); err != nil {
			return nil, err
		}
	}

	if err := checkDependencies(g); err != nil {
		return nil, err
	}
	return g, nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, ""), "cwd", cwd)
}

func (l *Loader) loadMember(
	g *domain.Graph,
	root, memberPath string,
	defaults DefaultsDTO,
	profiles map[string]ProfileDTO,
) error {
	relPath, _ := filepath.Rel(root, memberPath)

	configPath := filepath.Join(memberPath, domain.ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		l.Logger.Warn(fmt.Sprintf("%s missing in member %s, skipping", domain.ConfigFileName, relPath))
		return nil
	}

	var member Freshfile
	if err := l.readFreshfile(configPath, &member); err != nil {
		return zerr.With(err, "member", relPath)
	}
	if member.Root != "" {
		l.Logger.Warn(fmt.Sprintf("'root' defined in member %s is ignored", relPath))
	}
	if len(member.Members) > 0 {
		l.Logger.Warn(fmt.Sprintf("'members' defined in member %s is ignored", relPath))
	}

	return l.addUnits(
		g, &member, memberPath,
		mergeDefaults(defaults, member.Defaults),
		mergeProfiles(profiles, member.Profiles),
	)
}

func (l *Loader) addUnits(
	g *domain.Graph,
	file *Freshfile,
	baseDir string,
	defaults DefaultsDTO,
	profiles map[string]ProfileDTO,
) error {
	// Map order is random; sorted insertion keeps duplicate errors stable.
	for _, name := range slices.Sorted(maps.Keys(file.Units)) {
		dto := file.Units[name]
		if dto == nil {
			return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "empty unit definition"), "unit", name)
		}
		if err := validateUnitName(name); err != nil {
			return err
		}

		unit, err := buildUnit(name, dto, baseDir, defaults, profiles)
		if err != nil {
			return zerr.With(err, "unit", name)
		}
		if err := g.AddUnit(unit); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) readFreshfile(configPath string, target *Freshfile) error {
	// #nosec G304 -- configPath is discovered by walking up from cwd
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}
	if err := l.validate.Struct(target); err != nil {
		return validationError(err, configPath)
	}
	return nil
}

// validationError reports the first failing field of a validator error.
func validationError(err error, configPath string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "path", configPath)
	}
	fe := verrs[0]
	out := zerr.Wrap(domain.ErrConfigInvalid, "field "+fieldPath(fe.Namespace())+" failed '"+fe.Tag()+"'")
	out = zerr.With(out, "path", configPath)
	if v := fmt.Sprint(fe.Value()); v != "" {
		out = zerr.With(out, "value", v)
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func validateUnitName(name string) error {
	if name == AllUnits {
		return zerr.With(zerr.Wrap(domain.ErrInvalidUnitName, "name is reserved"), "unit", name)
	}
	if !validUnitNameRegex.MatchString(name) {
		return zerr.With(zerr.Wrap(domain.ErrInvalidUnitName, ""), "unit", name)
	}
	return nil
}

func buildUnit(
	name string,
	dto *UnitDTO,
	baseDir string,
	defaults DefaultsDTO,
	profiles map[string]ProfileDTO,
) (*domain.Unit, error) {
	profileName := firstNonEmpty(dto.Profile, defaults.Profile, defaultProfile)
	profile, ok := profiles[profileName]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "unknown profile"), "profile", profileName)
	}

	source := domain.SourceKind(firstNonEmpty(dto.Package.Kind, string(domain.SourcePath)))
	targetName := firstNonEmpty(dto.Target.Name, strings.ReplaceAll(dto.Package.Name, "-", "_"))

	deps := make([]domain.Dependency, 0, len(dto.DependsOn))
	for _, d := range dto.DependsOn {
		public := true
		if d.Public != nil {
			public = *d.Public
		}
		deps = append(deps, domain.Dependency{
			Unit:   d.Unit,
			Name:   firstNonEmpty(d.Name, d.Unit),
			Public: public,
		})
	}

	return &domain.Unit{
		Name: name,
		Package: domain.PackageID{
			Name:    dto.Package.Name,
			Version: dto.Package.Version,
			Source:  dto.Package.Source,
		},
		Target:       domain.Target{Name: targetName, Kind: domain.TargetKind(dto.Target.Kind)},
		Profile:      buildProfile(profileName, profile),
		Features:     domain.CanonicalFeatures(dto.Features),
		Mode:         domain.CompileMode(firstNonEmpty(dto.Mode, defaults.Mode, string(domain.ModeHost))),
		Channel:      firstNonEmpty(dto.Channel, defaults.Channel),
		Edition:      firstNonEmpty(dto.Edition, defaults.Edition),
		Rustflags:    firstNonNil(dto.Rustflags, defaults.Rustflags),
		Linker:       firstNonEmpty(dto.Linker, defaults.Linker),
		Compiler:     firstNonEmpty(dto.Compiler, defaults.Compiler),
		Source:       source,
		Checksum:     dto.Package.Checksum,
		Root:         resolveUnitRoot(baseDir, dto.Root),
		Sources:      canonicalizeStrings(dto.Sources),
		Outputs:      canonicalizeStrings(dto.Outputs),
		DepInfo:      dto.DepInfo,
		Env:          canonicalizeStrings(append(slices.Clone(defaults.Env), dto.Env...)),
		Dependencies: deps,
		Command:      dto.Cmd,
		Manifest: domain.Manifest{
			Authors:     dto.Manifest.Authors,
			Description: dto.Manifest.Description,
			Homepage:    dto.Manifest.Homepage,
			Repository:  dto.Manifest.Repository,
			License:     dto.Manifest.License,
			Links:       dto.Manifest.Links,
		},
	}, nil
}

func buildProfile(name string, dto ProfileDTO) domain.Profile {
	return domain.Profile{
		Name:      name,
		OptLevel:  dto.OptLevel,
		DebugInfo: dto.DebugInfo,
		Panic:     domain.PanicStrategy(firstNonEmpty(dto.Panic, string(domain.PanicUnwind))),
		LTO:       dto.LTO,
		Settings:  dto.Settings,
	}
}

func checkDependencies(g *domain.Graph) error {
	for u := range g.Units() {
		for _, dep := range u.Dependencies {
			if _, ok := g.GetUnit(dep.Unit); !ok {
				err := zerr.With(zerr.Wrap(domain.ErrMissingDependency, ""), "missing_dependency", dep.Unit)
				return zerr.With(err, "unit", u.Name)
			}
		}
	}
	return nil
}

func resolveMemberPaths(root string, patterns []string) ([]string, error) {
	// Several globs may match the same directory.
	memberPaths := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "member", pattern)
		}
		for _, match := range matches {
			if match == root {
				continue
			}
			if info, err := os.Stat(match); err == nil && info.IsDir() {
				memberPaths[match] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(memberPaths)), nil
}

// mergeDefaults returns base with every field set in override replaced.
func mergeDefaults(base, override DefaultsDTO) DefaultsDTO {
	out := base
	out.Compiler = firstNonEmpty(override.Compiler, base.Compiler)
	out.Channel = firstNonEmpty(override.Channel, base.Channel)
	out.Edition = firstNonEmpty(override.Edition, base.Edition)
	out.Mode = firstNonEmpty(override.Mode, base.Mode)
	out.Profile = firstNonEmpty(override.Profile, base.Profile)
	out.Linker = firstNonEmpty(override.Linker, base.Linker)
	out.Rustflags = firstNonNil(override.Rustflags, base.Rustflags)
	out.Env = append(slices.Clone(base.Env), override.Env...)
	return out
}

func mergeProfiles(base, override map[string]ProfileDTO) map[string]ProfileDTO {
	result := make(map[string]ProfileDTO, len(base)+len(override))
	maps.Copy(result, base)
	maps.Copy(result, override)
	return result
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func resolveRoot(configPath, configuredRoot string) string {
	return resolveUnitRoot(filepath.Dir(configPath), configuredRoot)
}

// resolveUnitRoot resolves a configured directory against baseDir.
func resolveUnitRoot(baseDir, configured string) string {
	if configured == "" {
		return filepath.Clean(baseDir)
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(baseDir, configured))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...[]string) []string {
	for _, v := range values {
		if v != nil {
			return slices.Clone(v)
		}
	}
	return nil
}
