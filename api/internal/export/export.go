// Package export delivers finished exam attempts: an in-memory zip archive
// fanned out to whichever targets are configured (email, database).
package export

import (
	"context"
	"errors"
	"fmt"

	"exam-bot/api/internal/exam"

	"go.uber.org/zap"
)

// Target is one delivery destination for a completed attempt.
type Target interface {
	Name() string
	Deliver(ctx context.Context, b exam.ExportBundle, archive []byte) error
}

// Service implements exam.Exporter over a set of targets. No targets
// configured is a normal, expected condition and reports as an error so
// the session records a degraded outcome.
type Service struct {
	targets []Target
	log     *zap.Logger
}

func NewService(log *zap.Logger, targets ...Target) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{targets: targets, log: log}
}

func (s *Service) Export(ctx context.Context, b exam.ExportBundle) error {
	if len(s.targets) == 0 {
		return errors.New("export: no delivery targets configured")
	}
	archive, err := BuildArchive(b)
	if err != nil {
		return fmt.Errorf("export: build archive: %w", err)
	}

	var errs []error
	for _, t := range s.targets {
		if err := t.Deliver(ctx, b, archive); err != nil {
			s.log.Warn("export target failed", zap.String("target", t.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}
		s.log.Info("export target delivered",
			zap.String("target", t.Name()),
			zap.String("attempt_id", b.AttemptID))
	}
	return errors.Join(errs...)
}
