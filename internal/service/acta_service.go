package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sigea-edu/sigea-api/internal/models"
	"github.com/sigea-edu/sigea-api/internal/repository"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
	"github.com/sigea-edu/sigea-api/pkg/export"
)

type actaRepository interface {
	Close(ctx context.Context, acta *models.Acta) error
	FindByID(ctx context.Context, id string) (*models.Acta, error)
	FindDetail(ctx context.Context, id string) (*models.ActaDetail, error)
	ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error)
	List(ctx context.Context, filter models.ActaFilter) ([]models.ActaDetail, int, error)
	FindStudentRows(ctx context.Context, actaID string) ([]models.ActaStudentRow, error)
}

type missingGradeCounter interface {
	CountMissingForAssignment(ctx context.Context, assignmentID string) (int, error)
}

type actaAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type tabularExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

type documentExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// CloseActaRequest closes a teaching assignment's grade roster.
type CloseActaRequest struct {
	TeachingAssignmentID string `json:"teaching_assignment_id" validate:"required"`
	ActorID              string `json:"-"`
}

// ActaExport carries rendered acta bytes with metadata.
type ActaExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ActaService closes grade records and serves their read side.
type ActaService struct {
	repo        actaRepository
	assignments assignmentReader
	missing     missingGradeCounter
	audits      actaAuditor
	csv         tabularExporter
	pdf         documentExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewActaService constructs ActaService.
func NewActaService(repo actaRepository, assignments assignmentReader, missing missingGradeCounter, audits actaAuditor, csv tabularExporter, pdf documentExporter, validate *validator.Validate, logger *zap.Logger) *ActaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActaService{repo: repo, assignments: assignments, missing: missing, audits: audits, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

// List returns actas with pagination metadata.
func (s *ActaService) List(ctx context.Context, filter models.ActaFilter) ([]models.ActaDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list actas")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return items, pagination, nil
}

// Get loads an acta with its assignment context and sealed rows.
func (s *ActaService) Get(ctx context.Context, id string) (*models.ActaDetail, []models.ActaStudentRow, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "acta not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acta")
	}
	rows, err := s.repo.FindStudentRows(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acta rows")
	}
	return detail, rows, nil
}

// Close creates the acta and seals every covered final grade. Closure
// is terminal; there is no reopen.
func (s *ActaService) Close(ctx context.Context, req CloseActaRequest) (*models.ActaDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid acta payload")
	}

	if _, err := s.assignments.FindByID(ctx, req.TeachingAssignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teaching assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	acta := &models.Acta{
		TeachingAssignmentID: req.TeachingAssignmentID,
		ClosedBy:             req.ActorID,
	}
	if err := s.repo.Close(ctx, acta); err != nil {
		switch {
		case errors.Is(err, repository.ErrActaExists):
			return nil, appErrors.Clone(appErrors.ErrConflict, "acta already closed for this assignment")
		case errors.Is(err, repository.ErrGradesIncomplete):
			count, countErr := s.missing.CountMissingForAssignment(ctx, req.TeachingAssignmentID)
			if countErr != nil {
				s.logger.Warn("failed to count missing grades", zap.Error(countErr))
			}
			return nil, appErrors.Clone(appErrors.ErrIncompleteGrades, fmt.Sprintf("%d students are missing final grades", count))
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close acta")
		}
	}

	s.logger.Info("acta closed",
		zap.String("acta_id", acta.ID),
		zap.String("code", acta.Code),
		zap.String("teaching_assignment_id", req.TeachingAssignmentID))

	if s.audits != nil {
		if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     optionalID(req.ActorID),
			Action:     models.AuditActionActaClose,
			Resource:   "acta",
			ResourceID: &acta.ID,
			NewValues:  []byte(`{"code":"` + acta.Code + `"}`),
		}); err != nil {
			s.logger.Warn("failed to record acta audit log", zap.Error(err))
		}
	}

	detail, err := s.repo.FindDetail(ctx, acta.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acta")
	}
	return detail, nil
}

// Export renders the acta roster as CSV or PDF.
func (s *ActaService) Export(ctx context.Context, id, format string) (*ActaExport, error) {
	detail, rows, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student Code", "Student", "Final Grade", "Verdict"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		grade := ""
		if row.FinalGrade != nil {
			grade = fmt.Sprintf("%.2f", *row.FinalGrade)
		}
		verdict := ""
		if row.Verdict != nil {
			verdict = string(*row.Verdict)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student Code": row.StudentCode,
			"Student":      row.StudentName,
			"Final Grade":  grade,
			"Verdict":      verdict,
		})
	}

	switch format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ActaExport{FileName: detail.Code + ".csv", ContentType: "text/csv", Content: content}, nil
	case "pdf":
		title := fmt.Sprintf("%s - %s (%s)", detail.Code, detail.CourseUnitName, detail.PeriodName)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ActaExport{FileName: detail.Code + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
