package domain

import (
	"fmt"
	"time"
)

// ReasonKind classifies why a unit is dirty.
type ReasonKind string

// Reason kinds, grouped by the part of the fingerprint that changed.
const (
	ReasonFreshBuild       ReasonKind = "fresh-build"
	ReasonCorruptRecord    ReasonKind = "corrupt-record"
	ReasonForced           ReasonKind = "forced"
	ReasonDepInfoMissing   ReasonKind = "dep-info-missing"
	ReasonOutputMissing    ReasonKind = "output-missing"
	ReasonFileMissing      ReasonKind = "file-missing"
	ReasonFileUnreadable   ReasonKind = "file-unreadable"
	ReasonFileAppeared     ReasonKind = "file-appeared"
	ReasonFileSizeChanged  ReasonKind = "file-size-changed"
	ReasonChecksumChanged  ReasonKind = "checksum-changed"
	ReasonFileStale        ReasonKind = "file-stale"
	ReasonLocalInputs      ReasonKind = "local-inputs-changed"
	ReasonEnvVarChanged    ReasonKind = "env-var-changed"
	ReasonRerunEnvChanged  ReasonKind = "rerun-env-changed"
	ReasonRerunTriggers    ReasonKind = "rerun-triggers-changed"
	ReasonRustflags        ReasonKind = "rustflags-changed"
	ReasonConfigSettings   ReasonKind = "config-settings-changed"
	ReasonToolchain        ReasonKind = "toolchain-changed"
	ReasonChannel          ReasonKind = "channel-changed"
	ReasonMetadata         ReasonKind = "metadata-changed"
	ReasonProfile          ReasonKind = "profile-changed"
	ReasonFeatures         ReasonKind = "features-changed"
	ReasonEdition          ReasonKind = "edition-changed"
	ReasonPrecalculated    ReasonKind = "precalculated-changed"
	ReasonDepCount         ReasonKind = "dep-count-changed"
	ReasonDepName          ReasonKind = "dep-name-changed"
	ReasonDepRebuilt       ReasonKind = "dep-rebuilt"
	ReasonDepNotBuilt      ReasonKind = "dep-not-built"
)

// DirtyReason is the single user-facing cause of a rebuild.
type DirtyReason struct {
	Kind    ReasonKind `json:"kind"`
	Message string     `json:"message"`
}

// String returns the user-facing message.
func (r DirtyReason) String() string {
	return r.Message
}

// IsZero reports whether no reason is set.
func (r DirtyReason) IsZero() bool {
	return r.Kind == ""
}

func reason(kind ReasonKind, format string, args ...any) DirtyReason {
	return DirtyReason{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NeverBuilt is reported when no fingerprint was ever committed.
func NeverBuilt() DirtyReason {
	return reason(ReasonFreshBuild, "the unit has not been built before")
}

// CorruptRecord is reported when the stored fingerprint could not be decoded.
func CorruptRecord() DirtyReason {
	return reason(ReasonCorruptRecord, "the stored fingerprint could not be read")
}

// Forced is reported when a rebuild was requested explicitly.
func Forced() DirtyReason {
	return reason(ReasonForced, "the build was forced")
}

// DepInfoMissing is reported when the previous build left no dependency info.
func DepInfoMissing() DirtyReason {
	return reason(ReasonDepInfoMissing, "the dependency info file is missing")
}

// OutputMissing is reported when a declared artifact no longer exists.
func OutputMissing(path string) DirtyReason {
	return reason(ReasonOutputMissing, "the output `%s` is missing", path)
}

// FileMissing is reported when a recorded input no longer exists.
func FileMissing(path string) DirtyReason {
	return reason(ReasonFileMissing, "the file `%s` is missing", path)
}

// FailedToRead is reported when a recorded input exists but cannot be probed.
func FailedToRead(path, cause string) DirtyReason {
	return reason(ReasonFileUnreadable, "failed to read `%s`: %s", path, cause)
}

// FileAppeared is reported when an input that was missing now exists.
func FileAppeared(path string) DirtyReason {
	return reason(ReasonFileAppeared, "the file `%s` was created", path)
}

// FileSizeChanged is reported when an input changed size.
func FileSizeChanged(path string, old, current int64) DirtyReason {
	return reason(ReasonFileSizeChanged, "file size changed (%d != %d) for `%s`", old, current, path)
}

// ChecksumChanged is reported when an input's content digest changed.
func ChecksumChanged(path string, old, current ContentDigest) DirtyReason {
	return reason(ReasonChecksumChanged, "the file `%s` has changed (checksum didn't match, %s != %s)",
		path, old, current)
}

// FileStale is reported when an input's modification time changed.
func FileStale(path string, old, current time.Time) DirtyReason {
	if old.IsZero() {
		return reason(ReasonFileStale, "the file `%s` has changed (no recorded modification time)", path)
	}
	return reason(ReasonFileStale, "the file `%s` has changed (%s != %s)",
		path, old.UTC().Format(time.RFC3339Nano), current.UTC().Format(time.RFC3339Nano))
}

// LocalInputsChanged is reported when the set of files a unit reads changed.
func LocalInputsChanged() DirtyReason {
	return reason(ReasonLocalInputs, "the list of source files changed")
}

// EnvVarChanged is reported when an environment variable the source references changed.
func EnvVarChanged(name string) DirtyReason {
	return reason(ReasonEnvVarChanged, "the environment variable %s changed", name)
}

// RerunEnvChanged is reported when a variable a build script watches changed.
func RerunEnvChanged(name string) DirtyReason {
	return reason(ReasonRerunEnvChanged, "the env variable %s changed", name)
}

// RerunTriggersChanged is reported when the build script declared different triggers.
func RerunTriggersChanged() DirtyReason {
	return reason(ReasonRerunTriggers, "the rerun-if-changed instructions changed")
}

// RustflagsChanged is reported when compiler flags changed.
func RustflagsChanged() DirtyReason {
	return reason(ReasonRustflags, "the rustflags changed")
}

// ConfigSettingsChanged is reported when the linker configuration changed.
func ConfigSettingsChanged() DirtyReason {
	return reason(ReasonConfigSettings, "the config settings changed")
}

// ToolchainChanged is reported when the compiler identity changed.
func ToolchainChanged() DirtyReason {
	return reason(ReasonToolchain, "the toolchain changed")
}

// ChannelChanged is reported when the compiler release channel changed.
func ChannelChanged(old, current string) DirtyReason {
	return reason(ReasonChannel, "the toolchain channel changed (%s != %s)", old, current)
}

// MetadataChanged is reported when package metadata changed.
func MetadataChanged() DirtyReason {
	return reason(ReasonMetadata, "the metadata changed")
}

// ProfileChanged is reported when the profile settings changed.
func ProfileChanged() DirtyReason {
	return reason(ReasonProfile, "the profile configuration changed")
}

// FeaturesChanged is reported when the enabled feature set changed.
func FeaturesChanged() DirtyReason {
	return reason(ReasonFeatures, "the list of features changed")
}

// EditionChanged is reported when the language edition changed.
func EditionChanged() DirtyReason {
	return reason(ReasonEdition, "the edition changed")
}

// PrecalculatedChanged is reported when the checksum of an immutable package changed.
func PrecalculatedChanged() DirtyReason {
	return reason(ReasonPrecalculated, "the precalculated components changed")
}

// DepCountChanged is reported when the number of dependencies changed.
func DepCountChanged() DirtyReason {
	return reason(ReasonDepCount, "number of dependencies changed")
}

// DepNameChanged is reported when a dependency edge now points elsewhere.
func DepNameChanged(old, current string) DirtyReason {
	return reason(ReasonDepName, "name of dependency changed (%s => %s)", old, current)
}

// DepRebuilt is reported when a public dependency's fingerprint changed.
func DepRebuilt(name string) DirtyReason {
	return reason(ReasonDepRebuilt, "the dependency %s was rebuilt", name)
}

// DepNotBuilt is reported when a dependency has no committed fingerprint.
func DepNotBuilt(name string) DirtyReason {
	return reason(ReasonDepNotBuilt, "the dependency %s has not been built", name)
}

// Verdict is the freshness decision for a unit.
type Verdict struct {
	Fresh  bool        `json:"fresh"`
	Reason DirtyReason `json:"reason,omitzero"`
	// Hash is the fingerprint hash the decision was made against.
	Hash string `json:"hash"`
	// Stem is the artifact stem the unit's outputs are named with.
	Stem string `json:"stem,omitempty"`
}

// FreshVerdict builds a verdict reusing the previous output.
func FreshVerdict(hash string) Verdict {
	return Verdict{Fresh: true, Hash: hash}
}

// DirtyVerdict builds a verdict requiring a rebuild.
func DirtyVerdict(hash string, r DirtyReason) Verdict {
	return Verdict{Reason: r, Hash: hash}
}

// String renders the verdict as "Fresh" or "Dirty(reason)".
func (v Verdict) String() string {
	if v.Fresh {
		return "Fresh"
	}
	return "Dirty(" + v.Reason.Message + ")"
}
