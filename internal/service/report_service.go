package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type reportRepository interface {
	FindRoster(ctx context.Context, assignmentID string) ([]models.RosterRow, error)
	FindTranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// ReportService serves rosters and transcripts with a Redis read-through
// cache in front of the report queries.
type ReportService struct {
	repo        reportRepository
	students    studentReader
	assignments assignmentReader
	cache       reportCache
	metrics     cacheMetrics
	ttl         time.Duration
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(repo reportRepository, students studentReader, assignments assignmentReader, cache reportCache, metrics cacheMetrics, ttl time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportService{repo: repo, students: students, assignments: assignments, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Roster returns the grading roster of a teaching assignment.
func (s *ReportService) Roster(ctx context.Context, assignmentID string) (*models.AssignmentRoster, error) {
	if _, err := s.assignments.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teaching assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	key := fmt.Sprintf("reports:roster:%s", assignmentID)
	var cached models.AssignmentRoster
	if s.lookupCache(ctx, key, &cached) {
		return &cached, nil
	}

	rows, err := s.repo.FindRoster(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	roster := &models.AssignmentRoster{
		TeachingAssignmentID: assignmentID,
		Students:             rows,
		GeneratedAt:          time.Now().UTC(),
	}
	s.storeCache(ctx, key, roster)
	return roster, nil
}

// Transcript returns the student's cross-period academic record with
// credits earned and credit-weighted GPA over finalized rows.
func (s *ReportService) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	key := fmt.Sprintf("reports:transcript:%s", studentID)
	var cached models.Transcript
	if s.lookupCache(ctx, key, &cached) {
		return &cached, nil
	}

	rows, err := s.repo.FindTranscriptRows(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}

	transcript := &models.Transcript{
		StudentID:   studentID,
		Rows:        rows,
		GeneratedAt: time.Now().UTC(),
	}

	var weighted float64
	var gradedCredits int
	for _, row := range rows {
		if row.FinalGrade == nil {
			continue
		}
		weighted += *row.FinalGrade * float64(row.Credits)
		gradedCredits += row.Credits
		if row.Verdict != nil && *row.Verdict == models.VerdictPassed {
			transcript.CreditsEarned += row.Credits
		}
	}
	if gradedCredits > 0 {
		gpa := weighted / float64(gradedCredits)
		transcript.GPA = &gpa
	}

	s.storeCache(ctx, key, transcript)
	return transcript, nil
}

// InvalidateRoster drops the cached roster for an assignment.
func (s *ReportService) InvalidateRoster(ctx context.Context, assignmentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("reports:roster:%s", assignmentID)); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
	}
}

// InvalidateTranscript drops the cached transcript for a student.
func (s *ReportService) InvalidateTranscript(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("reports:transcript:%s", studentID)); err != nil {
		s.logger.Warn("failed to invalidate transcript cache", zap.Error(err))
	}
}

func (s *ReportService) lookupCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	start := time.Now()
	err := s.cache.Get(ctx, key, dest)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	return hit
}

func (s *ReportService) storeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}
