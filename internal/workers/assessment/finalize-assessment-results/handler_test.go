package finalizeassessmentresults

import (
	"context"
	"errors"
	"testing"
	"time"

	"career-readiness/internal/common/config"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/models"
	"career-readiness/internal/search"
	"career-readiness/internal/store"
	"career-readiness/internal/store/storetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexer struct {
	docs []search.Document
	err  error
}

func (f *fakeIndexer) Upsert(ctx context.Context, doc search.Document) error {
	f.docs = append(f.docs, doc)
	return f.err
}

func setup(t *testing.T, indexer Indexer) (*Handler, *miniredis.Miniredis, func(a *models.Assessment) *storetest.Written) {
	db, mock := storetest.NewMock(t)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cache := store.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, time.Minute)

	h := NewHandler(LoadConfig(config.WorkerConfig{}, config.ScoringConfig{}), store.NewRepository(db), cache, indexer, logger.NewTestLogger(t))
	return h, mr, func(a *models.Assessment) *storetest.Written { return storetest.ExpectUpdate(mock, a) }
}

func TestExecute_BlendsAndCompletes(t *testing.T) {
	indexer := &fakeIndexer{}
	h, mr, expect := setup(t, indexer)
	require.NoError(t, mr.Set("assessment:results:a-1", `{"stale":true}`))

	written := expect(&models.Assessment{
		ID: "a-1", Type: models.TypeCCRL, Tier: models.TierBasic, Status: models.StatusInProgress,
		Data: models.AssessmentData{
			PersonalInfo:   &models.PersonalInfo{FullName: "Jamie Doe", Email: "jamie@example.com"},
			FormScore:      &models.FormScoreRecord{FormPercentage: 60},
			Scores:         map[string]interface{}{"categoryScores": map[string]interface{}{"networking": 75}, "overallScore": 77},
			ResumeAnalysis: map[string]interface{}{"score": 80},
			Recommendations: []interface{}{
				map[string]interface{}{"title": "Refresh skills", "description": "Take one course"},
			},
			AIAnalysisStarted:    true,
			ShowProcessingScreen: true,
		},
	})

	out, err := h.Execute(context.Background(), &Input{AssessmentID: "a-1"})
	require.NoError(t, err)

	assert.Equal(t, 68, out.FinalScore)
	assert.Equal(t, "Approaching Readiness", out.ReadinessLevel)
	assert.False(t, out.UsedDefaults)
	assert.Equal(t, "/assessment/ccrl/results/a-1", out.ResultsPath)
	assert.Equal(t, "jamie@example.com", out.RecipientEmail)

	assert.Equal(t, models.StatusCompleted, written.Status)
	assert.True(t, written.Data.AIProcessed)
	assert.False(t, written.Data.ShowProcessingScreen)
	require.NotNil(t, written.Data.FinalScore)
	assert.Equal(t, 68, *written.Data.FinalScore)

	assert.False(t, mr.Exists("assessment:results:a-1"))
	require.Len(t, indexer.docs, 1)
	assert.Equal(t, "a-1", indexer.docs[0].ID)
	assert.Equal(t, "Approaching Readiness", indexer.docs[0].ReadinessLevel)
}

func TestExecute_DefaultsAfterAIFailure(t *testing.T) {
	h, _, expect := setup(t, nil)
	written := expect(&models.Assessment{
		ID: "a-2", Type: models.TypeIRL, Tier: models.TierBasic, Status: models.StatusInProgress,
		Data: models.AssessmentData{AIAnalysisStarted: true, AIError: "AI analysis failed: timeout"},
	})

	out, err := h.Execute(context.Background(), &Input{AssessmentID: "a-2"})
	require.NoError(t, err)
	assert.True(t, out.UsedDefaults)
	assert.Equal(t, 70, out.FinalScore)
	assert.Equal(t, "Approaching Readiness", out.ReadinessLevel)
	assert.False(t, written.Data.AIProcessed)
	assert.Equal(t, "AI analysis failed: timeout", written.Data.AIError)
}

func TestExecute_ManualTierResultsPath(t *testing.T) {
	h, _, expect := setup(t, &fakeIndexer{err: errors.New("index unavailable")})
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	expect(&models.Assessment{
		ID: "a-3", Type: models.TypeRRL, Tier: models.TierPremium, Status: models.StatusInProgress,
		ReviewStatus: models.ReviewCompleted, ReviewedAt: &now, ClerkID: "c-1",
		Data: models.AssessmentData{
			ManualProcessingOnly: true,
			Scores:               map[string]interface{}{"categoryScores": map[string]interface{}{"impact": 90, "clarity": 86}},
		},
	})

	out, err := h.Execute(context.Background(), &Input{AssessmentID: "a-3"})
	require.NoError(t, err)
	assert.Equal(t, 88, out.FinalScore)
	assert.Equal(t, "Fully Prepared", out.ReadinessLevel)
	assert.Equal(t, "/assessment/rrl/premium-results/a-3", out.ResultsPath)
}

func TestLoadConfig_DefaultScore(t *testing.T) {
	assert.Equal(t, 70, LoadConfig(config.WorkerConfig{}, config.ScoringConfig{}).DefaultScore)
	assert.Equal(t, 65, LoadConfig(config.WorkerConfig{}, config.ScoringConfig{DefaultAIScore: 65}).DefaultScore)
	assert.Equal(t, 70, LoadConfig(config.WorkerConfig{}, config.ScoringConfig{DefaultAIScore: 140}).DefaultScore)
}
