package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewpasta/internal/domain"
)

type MigrationReport struct {
	Success       bool     `json:"success"`
	MigratedCount int      `json:"migrated_count"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
}

// MigrationService copies businesses from the legacy local store into the
// hosted backend once. Completion is recorded in a marker file.
type MigrationService struct {
	source  domain.BusinessRepository
	target  domain.BusinessRepository
	marker  string
	workers int
}

func NewMigrationService(source, target domain.BusinessRepository, markerPath string, workers int) *MigrationService {
	if workers <= 0 {
		workers = 8
	}
	return &MigrationService{source: source, target: target, marker: markerPath, workers: workers}
}

func (s *MigrationService) done() bool {
	_, err := os.Stat(s.marker)
	return err == nil
}

// ShouldRun is true when no marker exists and the legacy store has data.
func (s *MigrationService) ShouldRun(ctx context.Context) (bool, error) {
	if s.done() {
		return false, nil
	}
	slugs, err := s.source.Slugs(ctx)
	if err != nil {
		return false, err
	}
	return len(slugs) > 0, nil
}

// Run inserts every legacy business whose slug the target does not have yet.
// Legacy rows have no owner and keep their creation time. Per-business
// failures are collected in the report; the marker is written either way.
func (s *MigrationService) Run(ctx context.Context) (MigrationReport, error) {
	if s.done() {
		log.Info().Str("marker", s.marker).Msg("migration already completed")
		return MigrationReport{Success: true, Errors: []string{}}, nil
	}

	legacy, err := s.source.List(ctx)
	if err != nil {
		return MigrationReport{}, errors.Wrap(err, "read legacy store")
	}
	if len(legacy) == 0 {
		log.Info().Msg("no businesses to migrate")
		return MigrationReport{Success: true, Errors: []string{}}, s.markDone()
	}
	log.Info().Int("count", len(legacy)).Int("workers", s.workers).Msg("starting migration")

	existing, err := s.target.Slugs(ctx)
	if err != nil {
		return MigrationReport{}, errors.Wrap(err, "read target slugs")
	}
	have := make(map[string]struct{}, len(existing))
	for _, slug := range existing {
		have[slug] = struct{}{}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = MigrationReport{Errors: []string{}}
		sem    = semaphore.NewWeighted(int64(s.workers))
	)

	for _, b := range legacy {
		if _, ok := have[b.Slug]; ok {
			log.Info().Str("slug", b.Slug).Msg("skipping, already in target")
			report.Skipped++
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(b domain.Business) {
			defer wg.Done()
			defer sem.Release(1)

			_, err := s.target.Add(ctx, domain.NewBusiness{
				Name:        b.Name,
				Slug:        b.Slug,
				PlaceID:     b.PlaceID,
				Location:    b.Location,
				Description: b.Description,
				OwnerID:     nil,
				CreatedAt:   b.CreatedAt,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Str("slug", b.Slug).Err(err).Msg("migrate business failed")
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", b.Name, err))
				return
			}
			report.MigratedCount++
		}(b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, err
	}

	sort.Strings(report.Errors)
	report.Success = len(report.Errors) == 0
	if err := s.markDone(); err != nil {
		return report, err
	}
	log.Info().
		Int("migrated", report.MigratedCount).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Msg("migration complete")
	return report, nil
}

func (s *MigrationService) markDone() error {
	if err := os.MkdirAll(filepath.Dir(s.marker), 0o755); err != nil {
		return errors.Wrap(err, "create marker dir")
	}
	return errors.Wrap(os.WriteFile(s.marker, []byte("true\n"), 0o644), "write marker")
}

// Reset removes the marker so the next Run migrates again.
func (s *MigrationService) Reset() error {
	if err := os.Remove(s.marker); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove marker")
	}
	return nil
}
