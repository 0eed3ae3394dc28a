package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type scoreRepository interface {
	Upsert(ctx context.Context, score *models.Score) error
	FindByLine(ctx context.Context, lineID string) ([]models.ScoreDetail, error)
}

type finalGradeRepository interface {
	FindByLine(ctx context.Context, lineID string) (*models.FinalGrade, error)
	Upsert(ctx context.Context, grade *models.FinalGrade) error
	IsLineSealed(ctx context.Context, lineID string) (bool, error)
}

type lineRepository interface {
	FindLine(ctx context.Context, lineID string) (*models.EnrollmentLine, error)
	UpdateLineStatus(ctx context.Context, lineID string, status models.LineStatus) error
}

type gradeAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RecordScoreRequest records one score for a line.
type RecordScoreRequest struct {
	LineID      string  `json:"line_id" validate:"required"`
	CriterionID *string `json:"criterion_id"`
	Value       float64 `json:"value"`
	Note        *string `json:"note"`
	ActorID     string  `json:"-"`
}

// BatchScoreEntry is one entry of a batch score submission.
type BatchScoreEntry struct {
	LineID      string  `json:"line_id" validate:"required"`
	CriterionID *string `json:"criterion_id"`
	Value       float64 `json:"value"`
	Note        *string `json:"note"`
}

// BatchScoreRequest records scores for many lines at once.
type BatchScoreRequest struct {
	Entries []BatchScoreEntry `json:"entries" validate:"required,min=1,dive"`
	ActorID string            `json:"-"`
}

// BatchScoreItemResult reports the outcome of one batch entry.
type BatchScoreItemResult struct {
	LineID      string  `json:"line_id"`
	CriterionID *string `json:"criterion_id,omitempty"`
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
}

// BatchScoreResult summarizes a batch score submission.
type BatchScoreResult struct {
	Recorded int                    `json:"recorded"`
	Failed   int                    `json:"failed"`
	Items    []BatchScoreItemResult `json:"items"`
}

// GradeService maintains the score ledger and computes final grades.
type GradeService struct {
	scores    scoreRepository
	finals    finalGradeRepository
	lines     lineRepository
	audits    gradeAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(scores scoreRepository, finals finalGradeRepository, lines lineRepository, audits gradeAuditor, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{scores: scores, finals: finals, lines: lines, audits: audits, validator: validate, logger: logger}
}

// GetLineScores returns a line's recorded scores with criterion info.
func (s *GradeService) GetLineScores(ctx context.Context, lineID string) ([]models.ScoreDetail, error) {
	if _, err := s.lines.FindLine(ctx, lineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment line not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load line")
	}
	scores, err := s.scores.FindByLine(ctx, lineID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	return scores, nil
}

// RecordScore upserts one score for a (line, criterion) slot.
func (s *GradeService) RecordScore(ctx context.Context, req RecordScoreRequest) (*models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if req.Value < models.ScoreMin || req.Value > models.ScoreMax {
		return nil, appErrors.Clone(appErrors.ErrOutOfRange, "")
	}

	if _, err := s.lines.FindLine(ctx, req.LineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment line not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load line")
	}

	sealed, err := s.finals.IsLineSealed(ctx, req.LineID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check line seal")
	}
	if sealed {
		return nil, appErrors.Clone(appErrors.ErrSealed, "line is sealed by a closed acta")
	}

	score := &models.Score{
		LineID:      req.LineID,
		CriterionID: req.CriterionID,
		Value:       req.Value,
		Note:        req.Note,
		RecordedBy:  req.ActorID,
	}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record score")
	}

	if s.audits != nil {
		if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     optionalID(req.ActorID),
			Action:     models.AuditActionScoreEntry,
			Resource:   "score",
			ResourceID: &score.ID,
		}); err != nil {
			s.logger.Warn("failed to record score audit log", zap.Error(err))
		}
	}
	return score, nil
}

// RecordScores applies the batch entry by entry and reports per-item
// outcomes. A bad entry never aborts the rest of the batch.
func (s *GradeService) RecordScores(ctx context.Context, req BatchScoreRequest) (*BatchScoreResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	result := &BatchScoreResult{Items: make([]BatchScoreItemResult, 0, len(req.Entries))}
	for _, entry := range req.Entries {
		item := BatchScoreItemResult{LineID: entry.LineID, CriterionID: entry.CriterionID}
		_, err := s.RecordScore(ctx, RecordScoreRequest{
			LineID:      entry.LineID,
			CriterionID: entry.CriterionID,
			Value:       entry.Value,
			Note:        entry.Note,
			ActorID:     req.ActorID,
		})
		if err != nil {
			item.Error = appErrors.FromError(err).Message
			result.Failed++
		} else {
			item.Success = true
			result.Recorded++
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// FinalizeLine computes the weighted average of a line's scores and
// writes its final grade and verdict. Re-finalization overwrites the
// previous grade until the line is sealed.
func (s *GradeService) FinalizeLine(ctx context.Context, lineID, actorID string) (*models.FinalGrade, error) {
	line, err := s.lines.FindLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment line not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load line")
	}

	sealed, err := s.finals.IsLineSealed(ctx, lineID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check line seal")
	}
	if sealed {
		return nil, appErrors.Clone(appErrors.ErrSealed, "line is sealed by a closed acta")
	}

	scores, err := s.scores.FindByLine(ctx, lineID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	if len(scores) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoScores, "")
	}

	value := weightedAverage(scores)
	verdict := models.VerdictFailed
	status := models.LineStatusFailed
	if value >= models.PassingGrade {
		verdict = models.VerdictPassed
		status = models.LineStatusPassed
	}

	grade := &models.FinalGrade{
		LineID:  lineID,
		Value:   value,
		Verdict: verdict,
	}
	if err := s.finals.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write final grade")
	}

	if err := s.lines.UpdateLineStatus(ctx, lineID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update line status")
	}

	s.logger.Info("line finalized",
		zap.String("line_id", lineID),
		zap.String("enrollment_id", line.EnrollmentID),
		zap.Float64("value", value),
		zap.String("verdict", string(verdict)))

	if s.audits != nil {
		if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     optionalID(actorID),
			Action:     models.AuditActionFinalize,
			Resource:   "enrollment_line",
			ResourceID: &lineID,
		}); err != nil {
			s.logger.Warn("failed to record finalize audit log", zap.Error(err))
		}
	}
	return grade, nil
}

// weightedAverage computes sum(value*weight)/sum(weight), counting a
// score without a criterion as weight 1. Rounded half-up to 2
// decimals.
func weightedAverage(scores []models.ScoreDetail) float64 {
	var sum, weights float64
	for _, score := range scores {
		weight := 1.0
		if score.Weight != nil {
			weight = *score.Weight
		}
		sum += score.Value * weight
		weights += weight
	}
	if weights == 0 {
		return 0
	}
	return math.Round(sum/weights*100) / 100
}
