package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"career-readiness/internal/common/auth"
	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/models"
	"career-readiness/internal/scoring"
	"career-readiness/internal/search"
	"career-readiness/internal/store"
	"career-readiness/internal/store/storetest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type fakeProcesses struct {
	started   []map[string]interface{}
	published []string
	err       error
}

func (f *fakeProcesses) StartProcess(ctx context.Context, processID string, vars map[string]interface{}) (int64, error) {
	f.started = append(f.started, vars)
	return 2251799813685249, f.err
}

func (f *fakeProcesses) PublishMessage(ctx context.Context, name, key string, vars map[string]interface{}) error {
	f.published = append(f.published, name+":"+key)
	return nil
}

type fakeSearch struct {
	result  *search.Result
	got     search.Query
	upserts []string
	deleted []string
}

func (f *fakeSearch) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	f.got = q
	return f.result, nil
}

func (f *fakeSearch) Upsert(ctx context.Context, doc search.Document) error {
	f.upserts = append(f.upserts, doc.ID)
	return nil
}

func (f *fakeSearch) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type env struct {
	srv    *Server
	mock   sqlmock.Sqlmock
	redis  *miniredis.Miniredis
	procs  *fakeProcesses
	search *fakeSearch
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, mock := storetest.NewMock(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	e := &env{mock: mock, redis: mr, procs: &fakeProcesses{}, search: &fakeSearch{}}
	srv, err := New(Options{JWTSecret: testSecret, ProcessID: "career-assessment"}, Deps{
		Repo:      store.NewRepository(db),
		Cache:     store.NewCache(rdb, time.Hour, time.Hour),
		Search:    e.search,
		Processes: e.procs,
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	srv.now = func() time.Time { return fixedNow }
	e.srv = srv
	return e
}

func (e *env) do(t *testing.T, req *http.Request, subject, role string) (*http.Response, map[string]interface{}) {
	t.Helper()
	if subject != "" {
		token, err := auth.IssueToken(testSecret, subject, subject+"@example.com", role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)
	return resp, body
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func submitRequest(t *testing.T, path string, formData interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	data, err := json.Marshal(formData)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("formData", string(data)))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func answersAt(t *testing.T, assessmentType string, weight int) map[string]string {
	t.Helper()
	r, err := scoring.RubricFor(assessmentType)
	require.NoError(t, err)
	out := map[string]string{}
	for _, c := range r.Categories {
		out[c.Key] = c.Options[weight-1].Text
	}
	return out
}

func owned(id, typ, tier, status string) *models.Assessment {
	return &models.Assessment{ID: id, UserID: "user-1", Type: typ, Tier: tier, Status: status}
}

func TestResults_RequiresToken(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/assessment/ccrl/results/a1", nil), "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestResults_OwnerPolling(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "ccrl", models.TierBasic, models.StatusInProgress)
	a.Data.ShowProcessingScreen = true
	storetest.ExpectGet(e.mock, a)

	resp, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/assessment/ccrl/results/a1?_nocache=1", nil), "user-1", auth.RoleUser)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in_progress", body["status"])
	assert.Equal(t, true, body["data"].(map[string]interface{})["showProcessingScreen"])
	assert.False(t, e.redis.Exists("assessment:results:a1"))
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestResults_ManualTierReportsReviewStatus(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "rrl", models.TierPremium, models.StatusInProgress)
	a.ManualProcessing = true
	storetest.ExpectGet(e.mock, a)

	resp, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/assessment/rrl/results/a1", nil), "user-1", auth.RoleUser)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ReviewPending, body["status"])
}

func TestResults_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		stored  *models.Assessment
		path    string
		subject string
		want    int
	}{
		{"other user", owned("a1", "ccrl", models.TierBasic, models.StatusCompleted), "/api/assessment/ccrl/results/a1", "user-2", http.StatusForbidden},
		{"type mismatch", owned("a1", "irl", models.TierBasic, models.StatusCompleted), "/api/assessment/ccrl/results/a1", "user-1", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			storetest.ExpectGet(e.mock, tt.stored)
			resp, body := e.do(t, httptest.NewRequest(http.MethodGet, tt.path, nil), tt.subject, auth.RoleUser)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestResults_CompletedPayloadIsCached(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "ccrl", models.TierBasic, models.StatusCompleted)
	score := 68
	a.Data.FinalScore = &score
	a.Data.ReadinessLevel = "Approaching Readiness"
	storetest.ExpectGet(e.mock, a)

	resp, _ := e.do(t, httptest.NewRequest(http.MethodGet, "/api/assessment/ccrl/results/a1", nil), "user-1", auth.RoleUser)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, e.redis.Exists("assessment:results:a1"))

	resp, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/assessment/ccrl/results/a1", nil), "user-1", auth.RoleUser)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, "completed", body["status"])

	resp, _ = e.do(t, httptest.NewRequest(http.MethodGet, "/api/assessment/ccrl/results/a1", nil), "user-2", auth.RoleUser)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSubmit_InvalidAnswersRejectedBeforeLoading(t *testing.T) {
	e := newEnv(t)
	req := submitRequest(t, "/api/assessment/ccrl/a1/submit-with-file", map[string]interface{}{
		"personalInfo": map[string]interface{}{"fullName": "Ada Obi", "email": "ada@example.com"},
		"answers":      map[string]string{"careerGoals": "not an option"},
	})

	resp, body := e.do(t, req, "user-1", auth.RoleUser)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["errors"])
	assert.Empty(t, e.procs.started)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSubmit_StartsPipeline(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "ccrl", models.TierStandard, models.StatusPending)
	storetest.ExpectGet(e.mock, a)
	written := storetest.ExpectUpdate(e.mock, a)

	req := submitRequest(t, "/api/assessment/ccrl/a1/submit-with-file", map[string]interface{}{
		"personalInfo": map[string]interface{}{"fullName": "Ada Obi", "email": "ada@example.com"},
		"answers":      answersAt(t, "ccrl", 3),
	})
	resp, body := e.do(t, req, "user-1", auth.RoleUser)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/assessment/ccrl/standard-results/a1", body["redirectTo"])
	assert.Equal(t, models.StatusInProgress, written.Status)
	require.NotNil(t, written.Data.FormScore)
	assert.Equal(t, 60, written.Data.FormScore.FormPercentage)
	assert.Equal(t, "Ada Obi", written.Data.PersonalInfo.FullName)

	require.Len(t, e.procs.started, 1)
	assert.Equal(t, "a1", e.procs.started[0]["assessmentId"])
	assert.Equal(t, models.TierStandard, e.procs.started[0]["tier"])
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSubmit_PipelineFailureReopensSubmission(t *testing.T) {
	e := newEnv(t)
	e.procs.err = errors.New("gateway unavailable")
	a := owned("a1", "ccrl", models.TierStandard, models.StatusPending)
	storetest.ExpectGet(e.mock, a)
	submitted := storetest.ExpectUpdate(e.mock, a)
	inProgress := *a
	inProgress.Status = models.StatusInProgress
	reopened := storetest.ExpectUpdate(e.mock, &inProgress)

	req := submitRequest(t, "/api/assessment/ccrl/a1/submit-with-file", map[string]interface{}{
		"personalInfo": map[string]interface{}{"fullName": "Ada Obi", "email": "ada@example.com"},
		"answers":      answersAt(t, "ccrl", 3),
	})
	resp, body := e.do(t, req, "user-1", auth.RoleUser)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, models.StatusInProgress, submitted.Status)
	assert.Equal(t, models.StatusPending, reopened.Status)
	require.Len(t, e.procs.started, 1)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSubmit_AIRequiresResume(t *testing.T) {
	e := newEnv(t)
	storetest.ExpectGet(e.mock, owned("a1", "ccrl", models.TierBasic, models.StatusPending))

	req := submitRequest(t, "/api/assessment/ccrl/a1/submit-with-google-vision", map[string]interface{}{
		"personalInfo": map[string]interface{}{"fullName": "Ada Obi", "email": "ada@example.com"},
		"answers":      answersAt(t, "ccrl", 4),
	})
	resp, body := e.do(t, req, "user-1", auth.RoleUser)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["errors"].([]interface{})[0].(map[string]interface{})["field"], "resume")
	assert.Empty(t, e.procs.started)
}

func TestSubmit_AlreadySubmitted(t *testing.T) {
	e := newEnv(t)
	storetest.ExpectGet(e.mock, owned("a1", "irl", models.TierStandard, models.StatusInProgress))

	req := submitRequest(t, "/api/assessment/irl/a1/submit-with-file", map[string]interface{}{
		"personalInfo": map[string]interface{}{"fullName": "Ada Obi", "email": "ada@example.com"},
		"answers":      answersAt(t, "irl", 2),
	})
	resp, _ := e.do(t, req, "user-1", auth.RoleUser)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdmin_RequiresStaff(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/assessments", nil), "user-1", auth.RoleUser)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, jsonRequest(http.MethodPut, "/api/admin/assessments", BulkRequest{}), "clerk-1", auth.RoleClerk)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdmin_SearchKeepsRelevanceOrder(t *testing.T) {
	e := newEnv(t)
	e.search.result = &search.Result{IDs: []string{"b", "a"}, Total: 2}
	e.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assessments WHERE id = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	e.mock.ExpectQuery(`SELECT (.+) FROM assessments WHERE id = ANY\(\$1\) ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WillReturnRows(storetest.Rows(owned("a", "ccrl", models.TierBasic, models.StatusCompleted), owned("b", "irl", models.TierPremium, models.StatusInProgress)))

	resp, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/assessments?q=ada&tier=premium", nil), "admin-1", auth.RoleAdmin)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].(map[string]interface{})["id"])
	assert.Equal(t, "a", items[1].(map[string]interface{})["id"])
	assert.Equal(t, float64(2), body["pagination"].(map[string]interface{})["total"])
	assert.Equal(t, "ada", e.search.got.Text)
	assert.Equal(t, models.TierPremium, e.search.got.Tier)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestAdmin_CompletingReviewFinalizesAndResumesPipeline(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "ccrl", models.TierPremium, models.StatusInProgress)
	a.ClerkID = "clerk-1"
	a.ReviewStatus = models.ReviewInReview
	a.Data.FormScore = &models.FormScoreRecord{FormPercentage: 60}
	require.NoError(t, e.redis.Set("assessment:results:a1", "stale"))
	written := storetest.ExpectUpdate(e.mock, a)

	req := jsonRequest(http.MethodPatch, "/api/admin/assessments/a1", map[string]interface{}{
		"reviewStatus": models.ReviewCompleted,
		"reviewNotes":  "Strong leadership examples.",
	})
	resp, _ := e.do(t, req, "clerk-1", auth.RoleClerk)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusCompleted, written.Status)
	assert.Equal(t, models.ReviewCompleted, written.ReviewStatus)
	require.NotNil(t, written.ReviewedAt)
	assert.True(t, written.ReviewedAt.Equal(fixedNow))
	require.NotNil(t, written.Data.FinalScore)
	assert.Equal(t, 64, *written.Data.FinalScore)
	assert.Equal(t, "Developing Readiness", written.Data.ReadinessLevel)

	assert.Equal(t, []string{"review-completed:a1"}, e.procs.published)
	assert.Equal(t, []string{"a1"}, e.search.upserts)
	assert.False(t, e.redis.Exists("assessment:results:a1"))
}

func TestAdmin_ClerkCannotReviewOthersAssignment(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "ccrl", models.TierPremium, models.StatusInProgress)
	a.ClerkID = "clerk-1"
	storetest.ExpectAbortedUpdate(e.mock, a)

	req := jsonRequest(http.MethodPatch, "/api/admin/assessments/a1", map[string]interface{}{"reviewNotes": "x"})
	resp, _ := e.do(t, req, "clerk-2", auth.RoleClerk)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, e.procs.published)
}

func TestAdmin_BulkUpdateStatusReportsFailures(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "ccrl", models.TierBasic, models.StatusInProgress)
	written := storetest.ExpectUpdate(e.mock, a)
	storetest.ExpectMissing(e.mock, "gone")

	req := jsonRequest(http.MethodPut, "/api/admin/assessments", BulkRequest{
		Action:        BulkUpdateStatus,
		AssessmentIDs: []string{"a1", "gone"},
		Status:        models.StatusCancelled,
	})
	resp, body := e.do(t, req, "admin-1", auth.RoleAdmin)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusCancelled, written.Status)
	assert.Equal(t, float64(1), body["updated"])
	failed := body["failed"].([]interface{})
	require.Len(t, failed, 1)
	assert.Equal(t, "gone", failed[0].(map[string]interface{})["id"])
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestAdmin_BulkAssignNeedsClerk(t *testing.T) {
	e := newEnv(t)
	req := jsonRequest(http.MethodPut, "/api/admin/assessments", BulkRequest{Action: BulkAssignClerk, AssessmentIDs: []string{"a1"}})
	resp, _ := e.do(t, req, "admin-1", auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_Delete(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.redis.Set("assessment:results:a1", "cached"))
	e.mock.ExpectBegin()
	e.mock.ExpectExec(`DELETE FROM referrals`).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	e.mock.ExpectExec(`DELETE FROM payments`).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	e.mock.ExpectExec(`DELETE FROM assessments`).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	e.mock.ExpectCommit()

	resp, _ := e.do(t, httptest.NewRequest(http.MethodDelete, "/api/admin/assessments/a1", nil), "admin-1", auth.RoleAdmin)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"a1"}, e.search.deleted)
	assert.False(t, e.redis.Exists("assessment:results:a1"))
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestPrint_RendersHTML(t *testing.T) {
	e := newEnv(t)
	a := owned("a1", "ccrl", models.TierBasic, models.StatusCompleted)
	a.Data.PersonalInfo = &models.PersonalInfo{FullName: "Ada Obi", Email: "ada@example.com"}
	storetest.ExpectGet(e.mock, a)

	req := httptest.NewRequest(http.MethodGet, "/api/assessment/ccrl/results/a1/print", nil)
	token, err := auth.IssueToken(testSecret, "user-1", "", auth.RoleUser, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.srv.App().Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "Ada Obi")
}

func TestPDF_UnavailableWithoutChrome(t *testing.T) {
	e := newEnv(t)
	resp, _ := e.do(t, httptest.NewRequest(http.MethodGet, "/api/assessment/ccrl/results/a1/pdf", nil), "user-1", auth.RoleUser)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(apperrors.ErrCodeAssessmentNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(apperrors.ErrCodeInvalidStatus))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus("EXTERNAL_SERVICE_ERROR"))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(apperrors.ErrCodeQueryExecutionFailed))
}
