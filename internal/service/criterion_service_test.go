package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type mockCriterionRepo struct {
	criteria map[string][]models.EvaluationCriterion
	replaced map[string][]models.EvaluationCriterion
}

func (m *mockCriterionRepo) FindByAssignment(ctx context.Context, assignmentID string) ([]models.EvaluationCriterion, error) {
	return m.criteria[assignmentID], nil
}

func (m *mockCriterionRepo) Replace(ctx context.Context, assignmentID string, criteria []models.EvaluationCriterion) error {
	if m.replaced == nil {
		m.replaced = make(map[string][]models.EvaluationCriterion)
	}
	m.replaced[assignmentID] = criteria
	return nil
}

type mockActaChecker struct {
	closed map[string]bool
}

func (m *mockActaChecker) ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error) {
	return m.closed[assignmentID], nil
}

func newCriterionFixture() (*CriterionService, *mockCriterionRepo, *mockActaChecker) {
	repo := &mockCriterionRepo{criteria: map[string][]models.EvaluationCriterion{}}
	assignments := &mockAssignmentReader{assignments: map[string]*models.TeachingAssignment{
		"ta-1": {ID: "ta-1"},
	}}
	actas := &mockActaChecker{closed: map[string]bool{}}
	svc := NewCriterionService(repo, assignments, actas, nil, nil)
	return svc, repo, actas
}

func TestCriterionServiceReplace(t *testing.T) {
	svc, repo, _ := newCriterionFixture()

	criteria, err := svc.Replace(context.Background(), "ta-1", ReplaceCriteriaRequest{
		Criteria: []CriterionRequest{
			{Name: "Midterm", Weight: ptrFloat(30)},
			{Name: "Final", Weight: ptrFloat(50)},
			{Name: "Participation"},
		},
	})
	require.NoError(t, err)
	require.Len(t, criteria, 3)
	assert.Equal(t, 30.0, criteria[0].Weight)
	assert.Equal(t, 1.0, criteria[2].Weight)
	assert.Len(t, repo.replaced["ta-1"], 3)
}

func TestCriterionServiceReplaceClosedAssignment(t *testing.T) {
	svc, _, actas := newCriterionFixture()
	actas.closed["ta-1"] = true

	_, err := svc.Replace(context.Background(), "ta-1", ReplaceCriteriaRequest{
		Criteria: []CriterionRequest{{Name: "Midterm"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSealed.Code, appErrors.FromError(err).Code)
}

func TestCriterionServiceReplaceUnknownAssignment(t *testing.T) {
	svc, _, _ := newCriterionFixture()

	_, err := svc.Replace(context.Background(), "ta-ghost", ReplaceCriteriaRequest{
		Criteria: []CriterionRequest{{Name: "Midterm"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCriterionServiceReplaceEmptySet(t *testing.T) {
	svc, _, _ := newCriterionFixture()

	_, err := svc.Replace(context.Background(), "ta-1", ReplaceCriteriaRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
