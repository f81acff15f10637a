package ports

import (
	"time"

	"go.trai.ch/fresh/internal/core/domain"
)

// Metrics records engine activity.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveVerdict records a check and how long it took.
	ObserveVerdict(v domain.Verdict, elapsed time.Duration)
	// ObserveBuild records a build step and its outcome.
	ObserveBuild(elapsed time.Duration, err error)
	// ObserveCommit records a commit attempt and its outcome.
	ObserveCommit(err error)
	// WriteFile writes the collected metrics in the text exposition format.
	WriteFile(path string) error
}
