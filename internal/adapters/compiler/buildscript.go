package compiler

import (
	"slices"
	"strings"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
)

var _ ports.BuildOutputParser = (*BuildOutputParser)(nil)

// BuildOutputParser extracts directives from a build script's stdout.
// Both the "cargo:" and "cargo::" prefixes are accepted.
type BuildOutputParser struct{}

// NewBuildOutputParser creates a new BuildOutputParser.
func NewBuildOutputParser() *BuildOutputParser {
	return &BuildOutputParser{}
}

// Parse collects every rerun and warning directive in declaration order.
// Directives are cumulative: a trigger printed under any condition counts.
func (p *BuildOutputParser) Parse(stdout string) domain.BuildScriptOutput {
	var out domain.BuildScriptOutput
	for _, line := range strings.Split(stdout, "\n") {
		key, value, ok := directive(strings.TrimRight(line, "\r"))
		if !ok {
			continue
		}
		switch key {
		case "rerun-if-changed":
			if !slices.Contains(out.RerunIfChanged, value) {
				out.RerunIfChanged = append(out.RerunIfChanged, value)
			}
		case "rerun-if-env-changed":
			if !slices.Contains(out.RerunIfEnvChanged, value) {
				out.RerunIfEnvChanged = append(out.RerunIfEnvChanged, value)
			}
		case "warning":
			out.Warnings = append(out.Warnings, value)
		}
	}
	return out
}

func directive(line string) (string, string, bool) {
	rest, ok := strings.CutPrefix(line, "cargo::")
	if !ok {
		rest, ok = strings.CutPrefix(line, "cargo:")
	}
	if !ok {
		return "", "", false
	}
	key, value, ok := strings.Cut(rest, "=")
	if !ok || (value == "" && key != "warning") {
		return "", "", false
	}
	return key, value, true
}
