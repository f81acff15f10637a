// Package compiler reads what the compiler reports about a build: its
// dependency-info files, build-script directives and version identification.
package compiler

import (
	"strconv"
	"strings"

	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DepInfoParser = (*DepInfoParser)(nil)

const (
	envDepPrefix   = "# env-dep:"
	checksumPrefix = "# checksum:"
	fileLenPrefix  = "file_len:"
)

// DepInfoParser parses makefile-style dependency-info files:
//
//	out/libfoo.rlib: src/lib.rs src/a.rs
//
//	src/lib.rs:
//	src/a.rs:
//
//	# env-dep:FOO=bar
//	# checksum:blake3=26aa...51bc file_len:28 src/a.rs
type DepInfoParser struct{}

// NewDepInfoParser creates a new DepInfoParser.
func NewDepInfoParser() *DepInfoParser {
	return &DepInfoParser{}
}

// Parse returns the files, env references and checksums listed in text.
// Files keep the order they were first listed in.
func (p *DepInfoParser) Parse(text string) (domain.DepInfo, error) {
	var info domain.DepInfo
	seen := make(map[string]bool)
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			info.Files = append(info.Files, path)
		}
	}

	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, envDepPrefix):
			info.Env = append(info.Env, parseEnvDep(strings.TrimPrefix(line, envDepPrefix)))
		case strings.HasPrefix(line, checksumPrefix):
			path, sum, err := parseChecksum(strings.TrimPrefix(line, checksumPrefix))
			if err != nil {
				return domain.DepInfo{}, zerr.With(err, "line", n+1)
			}
			if info.Checksums == nil {
				info.Checksums = make(map[string]domain.FileChecksum)
			}
			info.Checksums[path] = sum
		case strings.HasPrefix(line, "#"):
			continue
		default:
			target, deps, ok := splitRule(line)
			if !ok {
				return domain.DepInfo{}, zerr.With(zerr.With(zerr.Wrap(domain.ErrDepInfoParseFailed, ""), "line", n+1), "text", line)
			}
			if len(deps) == 0 {
				add(target)
			}
			for _, dep := range deps {
				add(dep)
			}
		}
	}
	return info, nil
}

// splitRule splits "target: dep dep" at the first colon followed by a space
// or the end of the line, so drive letters stay part of the path.
func splitRule(line string) (string, []string, bool) {
	for i := 0; i < len(line); i++ {
		if line[i] != ':' || (i > 0 && line[i-1] == '\\') {
			continue
		}
		if i+1 == len(line) || line[i+1] == ' ' {
			return unescapePath(line[:i]), splitPaths(line[i+1:]), true
		}
	}
	return "", nil, false
}

// splitPaths splits on unescaped spaces.
func splitPaths(s string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == ' ':
			cur.WriteByte(' ')
			i++
		case s[i] == ' ':
			flush()
		default:
			cur.WriteByte(s[i])
		}
	}
	flush()
	return out
}

func unescapePath(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `\ `, " ")
}

// parseEnvDep parses "NAME=VALUE" or "NAME". A name without a value was unset
// at compile time.
func parseEnvDep(s string) domain.EnvVar {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return domain.EnvVar{Name: name, Value: domain.UnsetEnv()}
	}
	return domain.EnvVar{Name: name, Value: domain.SetEnv(unescapeEnv(value))}
}

// unescapeEnv reverses the escaping of backslashes and line breaks in env-dep values.
func unescapeEnv(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// parseChecksum parses "algo=hex file_len:N path".
func parseChecksum(s string) (string, domain.FileChecksum, error) {
	digest, rest, ok := strings.Cut(s, " ")
	if !ok {
		return "", domain.FileChecksum{}, zerr.With(zerr.Wrap(domain.ErrDepInfoParseFailed, ""), "checksum", s)
	}
	algo, sum, ok := strings.Cut(digest, "=")
	if !ok || sum == "" {
		return "", domain.FileChecksum{}, zerr.With(zerr.Wrap(domain.ErrDepInfoParseFailed, ""), "checksum", s)
	}
	lenField, path, ok := strings.Cut(rest, " ")
	if !ok || !strings.HasPrefix(lenField, fileLenPrefix) {
		return "", domain.FileChecksum{}, zerr.With(zerr.Wrap(domain.ErrDepInfoParseFailed, ""), "checksum", s)
	}
	size, err := strconv.ParseInt(strings.TrimPrefix(lenField, fileLenPrefix), 10, 64)
	if err != nil {
		return "", domain.FileChecksum{}, zerr.With(zerr.Wrap(err, domain.ErrDepInfoParseFailed.Error()), "checksum", s)
	}
	return unescapePath(path), domain.FileChecksum{
		Digest: domain.ContentDigest{Algorithm: domain.DigestAlgorithm(algo), Sum: sum},
		Size:   size,
	}, nil
}
