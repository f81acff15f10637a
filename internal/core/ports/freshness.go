package ports

import (
	"context"

	"go.trai.ch/fresh/internal/core/domain"
)

// FreshnessEngine decides whether units must be rebuilt and records successful builds.
//
//go:generate go run go.uber.org/mock/mockgen -source=freshness.go -destination=mocks/mock_freshness.go -package=mocks
type FreshnessEngine interface {
	// Check returns Fresh when the unit's previous output can be reused.
	Check(ctx context.Context, unit *domain.Unit) (domain.Verdict, error)

	// Commit records the unit's fingerprint after a successful build.
	Commit(ctx context.Context, unit *domain.Unit, evidence domain.BuildEvidence) error
}
