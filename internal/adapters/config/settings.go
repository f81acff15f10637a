package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/zerr"
)

// Setting keys shared by flags, FRESH_* variables and .fresh/config.yaml.
const (
	KeyMode        = "mode"
	KeyDigest      = "digest"
	KeyBuildDir    = "build-dir"
	KeyJobs        = "jobs"
	KeyLogJSON     = "log-json"
	KeyMetricsFile = "metrics-file"
	KeyVerbose     = "verbose"
)

// EnvPrefix is the prefix of environment variables overriding settings.
const EnvPrefix = "FRESH"

// Settings are the global options of one invocation.
type Settings struct {
	Mode   domain.DetectionMode
	Digest domain.DigestAlgorithm
	// BuildDir is absolute once loaded.
	BuildDir    string
	Jobs        int
	LogJSON     bool
	MetricsFile string
	Verbose     bool
}

// SettingsLoader layers defaults, the workspace settings file, the
// environment and command line flags, in increasing precedence.
type SettingsLoader struct {
	v *viper.Viper
}

// NewSettingsLoader creates a loader reading variables from the process environment.
func NewSettingsLoader() *SettingsLoader {
	v := viper.New()
	v.SetDefault(KeyMode, string(domain.DetectTimestamp))
	v.SetDefault(KeyDigest, string(domain.DigestBlake3))
	v.SetDefault(KeyBuildDir, domain.DefaultBuildDirName)
	v.SetDefault(KeyJobs, runtime.NumCPU())
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &SettingsLoader{v: v}
}

// BindFlags binds every known setting to the flag of the same name in flags.
func (s *SettingsLoader) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{KeyMode, KeyDigest, KeyBuildDir, KeyJobs, KeyLogJSON, KeyMetricsFile, KeyVerbose} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := s.v.BindPFlag(key, f); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrSettingsInvalid.Error()), "flag", key)
		}
	}
	return nil
}

// Load reads root/.fresh/config.yaml when present and decodes the settings.
// A relative build dir is resolved against root.
func (s *SettingsLoader) Load(root string) (*Settings, error) {
	s.v.SetConfigFile(filepath.Join(root, domain.FreshDirName, domain.SettingsFileName+".yaml"))
	if err := s.v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, zerr.Wrap(err, domain.ErrSettingsInvalid.Error())
	}

	settings := &Settings{
		Mode:        domain.DetectionMode(s.v.GetString(KeyMode)),
		Digest:      domain.DigestAlgorithm(s.v.GetString(KeyDigest)),
		BuildDir:    s.v.GetString(KeyBuildDir),
		Jobs:        s.v.GetInt(KeyJobs),
		LogJSON:     s.v.GetBool(KeyLogJSON),
		MetricsFile: s.v.GetString(KeyMetricsFile),
		Verbose:     s.v.GetBool(KeyVerbose),
	}
	if err := settings.Validate(root); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the option values and makes paths absolute.
func (s *Settings) Validate(root string) error {
	if !s.Mode.Valid() {
		return zerr.With(zerr.Wrap(domain.ErrInvalidDetectionMode, ""), "mode", string(s.Mode))
	}
	if !s.Digest.Valid() {
		return zerr.With(zerr.Wrap(domain.ErrUnsupportedDigest, ""), "digest", string(s.Digest))
	}
	if s.Jobs < 1 {
		s.Jobs = 1
	}
	if s.BuildDir == "" {
		s.BuildDir = domain.DefaultBuildDirName
	}
	if !filepath.IsAbs(s.BuildDir) {
		s.BuildDir = filepath.Join(root, s.BuildDir)
	}
	s.BuildDir = filepath.Clean(s.BuildDir)
	if s.MetricsFile != "" && !filepath.IsAbs(s.MetricsFile) {
		s.MetricsFile = filepath.Join(root, s.MetricsFile)
	}
	return nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}
