package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type mockReportRepo struct {
	rosterCalls    int
	roster         []models.RosterRow
	transcriptRows []models.TranscriptRow
}

func (m *mockReportRepo) FindRoster(ctx context.Context, assignmentID string) ([]models.RosterRow, error) {
	m.rosterCalls++
	return m.roster, nil
}

func (m *mockReportRepo) FindTranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	return m.transcriptRows, nil
}

type mockReportCache struct {
	entries map[string][]byte
	deleted []string
}

func (m *mockReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *mockReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *mockReportCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	for key := range m.entries {
		if key == pattern {
			delete(m.entries, key)
		}
	}
	return nil
}

type mockCacheMetrics struct {
	hits   int
	misses int
}

func (m *mockCacheMetrics) RecordCacheOperation(hit bool, duration time.Duration) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

type reportFixture struct {
	svc     *ReportService
	repo    *mockReportRepo
	cache   *mockReportCache
	metrics *mockCacheMetrics
}

func newReportFixture() *reportFixture {
	repo := &mockReportRepo{}
	cache := &mockReportCache{entries: map[string][]byte{}}
	metrics := &mockCacheMetrics{}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", Code: "S001", Active: true},
	}}
	assignments := &mockAssignmentReader{assignments: map[string]*models.TeachingAssignment{
		"ta-1": {ID: "ta-1"},
	}}
	svc := NewReportService(repo, students, assignments, cache, metrics, time.Minute, nil)
	return &reportFixture{svc: svc, repo: repo, cache: cache, metrics: metrics}
}

func TestReportServiceRosterCaches(t *testing.T) {
	f := newReportFixture()
	f.repo.roster = []models.RosterRow{
		{LineID: "line-1", StudentCode: "S001", StudentName: "Ana Quispe", LineStatus: "IN_PROGRESS"},
	}

	first, err := f.svc.Roster(context.Background(), "ta-1")
	require.NoError(t, err)
	require.Len(t, first.Students, 1)
	assert.Equal(t, 1, f.repo.rosterCalls)
	assert.Equal(t, 1, f.metrics.misses)

	second, err := f.svc.Roster(context.Background(), "ta-1")
	require.NoError(t, err)
	require.Len(t, second.Students, 1)
	assert.Equal(t, 1, f.repo.rosterCalls)
	assert.Equal(t, 1, f.metrics.hits)
}

func TestReportServiceRosterUnknownAssignment(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Roster(context.Background(), "ta-ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceTranscript(t *testing.T) {
	f := newReportFixture()
	passed := models.VerdictPassed
	failed := models.VerdictFailed
	f.repo.transcriptRows = []models.TranscriptRow{
		{CourseUnitCode: "MAT101", Credits: 4, FinalGrade: ptrFloat(16), Verdict: &passed},
		{CourseUnitCode: "FIS101", Credits: 3, FinalGrade: ptrFloat(10), Verdict: &failed},
		{CourseUnitCode: "QUI101", Credits: 3},
	}

	transcript, err := f.svc.Transcript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 4, transcript.CreditsEarned)
	require.NotNil(t, transcript.GPA)
	// (16*4 + 10*3) / 7
	assert.InDelta(t, 13.4285, *transcript.GPA, 0.001)
	assert.Len(t, transcript.Rows, 3)
}

func TestReportServiceTranscriptNoGrades(t *testing.T) {
	f := newReportFixture()
	f.repo.transcriptRows = []models.TranscriptRow{
		{CourseUnitCode: "MAT101", Credits: 4},
	}

	transcript, err := f.svc.Transcript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 0, transcript.CreditsEarned)
	assert.Nil(t, transcript.GPA)
}

func TestReportServiceInvalidate(t *testing.T) {
	f := newReportFixture()
	f.repo.roster = []models.RosterRow{{LineID: "line-1"}}

	_, err := f.svc.Roster(context.Background(), "ta-1")
	require.NoError(t, err)

	f.svc.InvalidateRoster(context.Background(), "ta-1")
	assert.Contains(t, f.cache.deleted, "reports:roster:ta-1")

	_, err = f.svc.Roster(context.Background(), "ta-1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.rosterCalls)
}
