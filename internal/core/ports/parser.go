package ports

import "go.trai.ch/fresh/internal/core/domain"

// DepInfoParser parses the dependency-info text a compiler emits.
//
//go:generate go run go.uber.org/mock/mockgen -source=parser.go -destination=mocks/mock_parser.go -package=mocks
type DepInfoParser interface {
	Parse(text string) (domain.DepInfo, error)
}

// BuildOutputParser extracts directives from build-script output.
type BuildOutputParser interface {
	Parse(stdout string) domain.BuildScriptOutput
}
