// Package freshness decides whether a unit's previous output can be reused.
package freshness

import (
	"slices"

	"go.trai.ch/fresh/internal/core/domain"
)

// Compare returns the first difference between the recorded fingerprint and
// the current one, or the zero reason when they match. Fields are compared in
// a fixed order so the reported reason is stable:
//
//	precalculated, local inputs, env vars, rerun env vars, rustflags, linker,
//	toolchain (channel first), metadata, profile, features, edition,
//	rerun-if-changed paths, dependencies
func Compare(recorded, current *domain.Fingerprint) domain.DirtyReason {
	checks := []func(recorded, current *domain.Fingerprint) domain.DirtyReason{
		comparePrecalculated,
		compareLocalInputs,
		compareEnvVars,
		compareRerunEnv,
		compareFlags,
		compareToolchain,
		compareSettings,
		compareRerunPaths,
		compareDeps,
	}
	for _, check := range checks {
		if r := check(recorded, current); !r.IsZero() {
			return r
		}
	}
	return domain.DirtyReason{}
}

func comparePrecalculated(recorded, current *domain.Fingerprint) domain.DirtyReason {
	if recorded.Precalculated != current.Precalculated {
		return domain.PrecalculatedChanged()
	}
	return domain.DirtyReason{}
}

// compareLocalInputs matches every recorded input against its current
// observation in path order, then reports inputs that were not recorded.
func compareLocalInputs(recorded, current *domain.Fingerprint) domain.DirtyReason {
	now := make(map[string]domain.LocalInput, len(current.LocalInputs))
	for _, in := range current.LocalInputs {
		now[in.Key()] = in
	}

	seen := make(map[string]bool, len(recorded.LocalInputs))
	for _, rec := range sortedInputs(recorded.LocalInputs) {
		seen[rec.Key()] = true
		cur, ok := now[rec.Key()]
		if !ok {
			return domain.LocalInputsChanged()
		}
		if match, reason := cur.Match(rec); !match {
			return reason
		}
	}

	for _, cur := range current.LocalInputs {
		if !seen[cur.Key()] {
			return domain.LocalInputsChanged()
		}
	}
	return domain.DirtyReason{}
}

func sortedInputs(inputs []domain.LocalInput) []domain.LocalInput {
	out := slices.Clone(inputs)
	slices.SortFunc(out, func(a, b domain.LocalInput) int {
		switch {
		case a.Key() < b.Key():
			return -1
		case a.Key() > b.Key():
			return 1
		}
		return 0
	})
	return out
}

func compareEnvVars(recorded, current *domain.Fingerprint) domain.DirtyReason {
	if name, changed := diffEnv(recorded.EnvVars, current.EnvVars); changed {
		return domain.EnvVarChanged(name)
	}
	return domain.DirtyReason{}
}

func compareRerunEnv(recorded, current *domain.Fingerprint) domain.DirtyReason {
	if name, changed := diffEnv(recorded.RerunTriggers.Env, current.RerunTriggers.Env); changed {
		return domain.RerunEnvChanged(name)
	}
	return domain.DirtyReason{}
}

// diffEnv returns the first variable, by name, whose presence or value differs.
func diffEnv(recorded, current []domain.EnvVar) (string, bool) {
	values := make(map[string]domain.EnvValue, len(recorded))
	for _, v := range recorded {
		values[v.Name] = v.Value
	}
	now := make(map[string]domain.EnvValue, len(current))
	for _, v := range current {
		now[v.Name] = v.Value
	}

	names := make([]string, 0, len(values)+len(now))
	for name := range values {
		names = append(names, name)
	}
	for name := range now {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range slices.Compact(names) {
		old, wasTracked := values[name]
		cur, isTracked := now[name]
		if wasTracked != isTracked || !old.Equal(cur) {
			return name, true
		}
	}
	return "", false
}

func compareFlags(recorded, current *domain.Fingerprint) domain.DirtyReason {
	if !slices.Equal(recorded.Rustflags, current.Rustflags) {
		return domain.RustflagsChanged()
	}
	if recorded.Linker != current.Linker {
		return domain.ConfigSettingsChanged()
	}
	return domain.DirtyReason{}
}

// compareToolchain reports channel changes on their own: a nightly and a
// stable release can share a displayed version.
func compareToolchain(recorded, current *domain.Fingerprint) domain.DirtyReason {
	if recorded.Toolchain.Channel != current.Toolchain.Channel {
		return domain.ChannelChanged(recorded.Toolchain.Channel, current.Toolchain.Channel)
	}
	if recorded.Toolchain.ID() != current.Toolchain.ID() {
		return domain.ToolchainChanged()
	}
	return domain.DirtyReason{}
}

func compareSettings(recorded, current *domain.Fingerprint) domain.DirtyReason {
	switch {
	case recorded.MetadataHash != current.MetadataHash:
		return domain.MetadataChanged()
	case recorded.ProfileHash != current.ProfileHash:
		return domain.ProfileChanged()
	case !slices.Equal(domain.CanonicalFeatures(recorded.Features), domain.CanonicalFeatures(current.Features)):
		return domain.FeaturesChanged()
	case recorded.Edition != current.Edition:
		return domain.EditionChanged()
	}
	return domain.DirtyReason{}
}

func compareRerunPaths(recorded, current *domain.Fingerprint) domain.DirtyReason {
	if !slices.Equal(recorded.RerunTriggers.Paths, current.RerunTriggers.Paths) {
		return domain.RerunTriggersChanged()
	}
	return domain.DirtyReason{}
}

// compareDeps walks both dependency lists in name order. Only public
// dependencies propagate a rebuild.
func compareDeps(recorded, current *domain.Fingerprint) domain.DirtyReason {
	for _, dep := range current.Deps {
		if dep.Hash == "" {
			return domain.DepNotBuilt(dep.Name)
		}
	}
	if len(recorded.Deps) != len(current.Deps) {
		return domain.DepCountChanged()
	}

	old := sortedDeps(recorded.Deps)
	cur := sortedDeps(current.Deps)
	for i := range cur {
		if old[i].Name != cur[i].Name {
			return domain.DepNameChanged(old[i].Name, cur[i].Name)
		}
		if old[i].Unit != cur[i].Unit {
			return domain.DepNameChanged(old[i].Unit, cur[i].Unit)
		}
	}
	for i := range cur {
		if cur[i].Public && old[i].Hash != cur[i].Hash {
			return domain.DepRebuilt(cur[i].Name)
		}
	}
	return domain.DirtyReason{}
}

func sortedDeps(deps []domain.DepFingerprint) []domain.DepFingerprint {
	fp := domain.Fingerprint{Deps: slices.Clone(deps)}
	fp.Normalize()
	return fp.Deps
}
