package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"career-readiness/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return New(config.AIServiceConfig{BaseURL: url + "/", APIKey: "k", Timeout: 2000, MaxRetries: 2})
}

func TestAnalyze_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, analyzePath, r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ccrl", req.AssessmentType)
		assert.Equal(t, 60, req.FormScore.FormPercentage)

		_, _ = w.Write([]byte(`{"success":true,"scores":{"confidence":80,"overallScore":75},"resumeScore":72,
			"recommendations":["Update your portfolio"],"summary":"Solid"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Analyze(context.Background(), &Request{
		AssessmentID: "a-1", AssessmentType: "ccrl",
		FormScore: &FormScore{FormPercentage: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, "Solid", res.Summary)
	require.NotNil(t, res.ResumeScore)
	assert.Equal(t, 72, *res.ResumeScore)
	assert.IsType(t, map[string]interface{}{}, res.Scores)
}

func TestAnalyze_ReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"model overloaded"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), &Request{AssessmentID: "a-1"})
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestAnalyze_RejectedNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Analyze(context.Background(), &Request{AssessmentID: "a-1"})
	assert.ErrorIs(t, err, ErrAnalysisRejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyze_ServerErrorsExhaustRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Analyze(context.Background(), &Request{AssessmentID: "a-1"})
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Analyze(ctx, &Request{AssessmentID: "a-1"})
	assert.ErrorIs(t, err, ErrAnalysisTimeout)
}
