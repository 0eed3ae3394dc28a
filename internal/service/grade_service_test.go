package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type mockScoreRepo struct {
	scores map[string][]models.ScoreDetail
	saved  []models.Score
}

func (m *mockScoreRepo) Upsert(ctx context.Context, score *models.Score) error {
	score.ID = "score-" + score.LineID
	m.saved = append(m.saved, *score)
	return nil
}

func (m *mockScoreRepo) FindByLine(ctx context.Context, lineID string) ([]models.ScoreDetail, error) {
	return m.scores[lineID], nil
}

type mockFinalGradeRepo struct {
	finals map[string]*models.FinalGrade
	sealed map[string]bool
}

func (m *mockFinalGradeRepo) FindByLine(ctx context.Context, lineID string) (*models.FinalGrade, error) {
	if grade, ok := m.finals[lineID]; ok {
		return grade, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFinalGradeRepo) Upsert(ctx context.Context, grade *models.FinalGrade) error {
	if m.finals == nil {
		m.finals = make(map[string]*models.FinalGrade)
	}
	m.finals[grade.LineID] = grade
	return nil
}

func (m *mockFinalGradeRepo) IsLineSealed(ctx context.Context, lineID string) (bool, error) {
	return m.sealed[lineID], nil
}

type mockLineRepo struct {
	lines    map[string]*models.EnrollmentLine
	statuses map[string]models.LineStatus
}

func (m *mockLineRepo) FindLine(ctx context.Context, lineID string) (*models.EnrollmentLine, error) {
	if line, ok := m.lines[lineID]; ok {
		return line, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLineRepo) UpdateLineStatus(ctx context.Context, lineID string, status models.LineStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.LineStatus)
	}
	m.statuses[lineID] = status
	return nil
}

type mockAuditor struct {
	actions []string
}

func (m *mockAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.actions = append(m.actions, log.Action)
	return nil
}

func ptrFloat(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }

func newGradeFixture() (*GradeService, *mockScoreRepo, *mockFinalGradeRepo, *mockLineRepo, *mockAuditor) {
	scores := &mockScoreRepo{scores: map[string][]models.ScoreDetail{}}
	finals := &mockFinalGradeRepo{finals: map[string]*models.FinalGrade{}, sealed: map[string]bool{}}
	lines := &mockLineRepo{lines: map[string]*models.EnrollmentLine{
		"line-1": {ID: "line-1", EnrollmentID: "enr-1", Status: models.LineStatusInProgress},
	}}
	audits := &mockAuditor{}
	svc := NewGradeService(scores, finals, lines, audits, nil, nil)
	return svc, scores, finals, lines, audits
}

func TestGradeServiceRecordScore(t *testing.T) {
	svc, scores, _, _, audits := newGradeFixture()

	score, err := svc.RecordScore(context.Background(), RecordScoreRequest{
		LineID:  "line-1",
		Value:   15.5,
		ActorID: "teacher-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 15.5, score.Value)
	assert.Equal(t, "teacher-1", score.RecordedBy)
	require.Len(t, scores.saved, 1)
	assert.Equal(t, []string{models.AuditActionScoreEntry}, audits.actions)
}

func TestGradeServiceRecordScoreOutOfRange(t *testing.T) {
	svc, _, _, _, _ := newGradeFixture()

	for _, value := range []float64{-0.5, 20.5} {
		_, err := svc.RecordScore(context.Background(), RecordScoreRequest{LineID: "line-1", Value: value})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrOutOfRange.Code, appErrors.FromError(err).Code)
	}
}

func TestGradeServiceRecordScoreSealedLine(t *testing.T) {
	svc, _, finals, _, _ := newGradeFixture()
	finals.sealed["line-1"] = true

	_, err := svc.RecordScore(context.Background(), RecordScoreRequest{LineID: "line-1", Value: 14})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSealed.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecordScoreUnknownLine(t *testing.T) {
	svc, _, _, _, _ := newGradeFixture()

	_, err := svc.RecordScore(context.Background(), RecordScoreRequest{LineID: "line-missing", Value: 14})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecordScoresBatch(t *testing.T) {
	svc, _, finals, _, _ := newGradeFixture()
	finals.sealed["line-sealed"] = true

	result, err := svc.RecordScores(context.Background(), BatchScoreRequest{
		ActorID: "teacher-1",
		Entries: []BatchScoreEntry{
			{LineID: "line-1", Value: 14},
			{LineID: "line-1", Value: 25},
			{LineID: "line-missing", Value: 12},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Recorded)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Items, 3)
	assert.True(t, result.Items[0].Success)
	assert.False(t, result.Items[1].Success)
	assert.NotEmpty(t, result.Items[1].Error)
	assert.False(t, result.Items[2].Success)
}

func TestGradeServiceFinalizeLinePasses(t *testing.T) {
	svc, scores, finals, lines, audits := newGradeFixture()
	scores.scores["line-1"] = []models.ScoreDetail{
		{Score: models.Score{Value: 16}, Weight: ptrFloat(40)},
		{Score: models.Score{Value: 12}, Weight: ptrFloat(60)},
	}

	grade, err := svc.FinalizeLine(context.Background(), "line-1", "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 13.6, grade.Value)
	assert.Equal(t, models.VerdictPassed, grade.Verdict)
	assert.Equal(t, models.LineStatusPassed, lines.statuses["line-1"])
	assert.NotNil(t, finals.finals["line-1"])
	assert.Equal(t, []string{models.AuditActionFinalize}, audits.actions)
}

func TestGradeServiceFinalizeLineFails(t *testing.T) {
	svc, scores, _, lines, _ := newGradeFixture()
	scores.scores["line-1"] = []models.ScoreDetail{
		{Score: models.Score{Value: 10}, Weight: ptrFloat(50)},
		{Score: models.Score{Value: 11}, Weight: ptrFloat(50)},
	}

	grade, err := svc.FinalizeLine(context.Background(), "line-1", "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 10.5, grade.Value)
	assert.Equal(t, models.VerdictFailed, grade.Verdict)
	assert.Equal(t, models.LineStatusFailed, lines.statuses["line-1"])
}

func TestGradeServiceFinalizeLineNoScores(t *testing.T) {
	svc, _, _, _, _ := newGradeFixture()

	_, err := svc.FinalizeLine(context.Background(), "line-1", "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoScores.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceFinalizeLineSealed(t *testing.T) {
	svc, scores, finals, _, _ := newGradeFixture()
	scores.scores["line-1"] = []models.ScoreDetail{{Score: models.Score{Value: 14}}}
	finals.sealed["line-1"] = true

	_, err := svc.FinalizeLine(context.Background(), "line-1", "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSealed.Code, appErrors.FromError(err).Code)
}

func TestWeightedAverage(t *testing.T) {
	cases := []struct {
		name   string
		scores []models.ScoreDetail
		want   float64
	}{
		{
			name: "weighted",
			scores: []models.ScoreDetail{
				{Score: models.Score{Value: 20}, Weight: ptrFloat(30)},
				{Score: models.Score{Value: 10}, Weight: ptrFloat(70)},
			},
			want: 13,
		},
		{
			name: "missing criterion defaults to weight one",
			scores: []models.ScoreDetail{
				{Score: models.Score{Value: 12}},
				{Score: models.Score{Value: 14}},
				{Score: models.Score{Value: 14}},
			},
			want: 13.33,
		},
		{
			name:   "single score",
			scores: []models.ScoreDetail{{Score: models.Score{Value: 17.25}}},
			want:   17.25,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, weightedAverage(tc.scores))
		})
	}
}
