package models

import (
	"time"
)

const (
	TypeCCRL = "ccrl"
	TypeCDRL = "cdrl"
	TypeCTRL = "ctrl"
	TypeFJRL = "fjrl"
	TypeIJRL = "ijrl"
	TypeIRL  = "irl"
	TypeRRL  = "rrl"
)

// AssessmentTypes lists every supported questionnaire code.
var AssessmentTypes = []string{TypeCCRL, TypeCDRL, TypeCTRL, TypeFJRL, TypeIJRL, TypeIRL, TypeRRL}

func IsValidType(t string) bool {
	for _, v := range AssessmentTypes {
		if v == t {
			return true
		}
	}
	return false
}

const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"
)

func IsValidTier(t string) bool {
	return t == TierBasic || t == TierStandard || t == TierPremium
}

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

const (
	ReviewPending   = "pending_review"
	ReviewInReview  = "in_review"
	ReviewCompleted = "completed"
)

func IsValidReviewStatus(s string) bool {
	return s == "" || s == ReviewPending || s == ReviewInReview || s == ReviewCompleted
}

const (
	ModeAI     = "ai"
	ModeManual = "manual"
)

// ProcessingMode routes basic assessments to AI analysis and everything
// else, or anything flagged for manual processing, to a clerk.
func ProcessingMode(tier string, manualProcessing bool) string {
	if tier == TierBasic && !manualProcessing {
		return ModeAI
	}
	return ModeManual
}

type Assessment struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Type             string         `json:"type"`
	Tier             string         `json:"tier"`
	Status           string         `json:"status"`
	ReviewStatus     string         `json:"reviewStatus,omitempty"`
	Price            float64        `json:"price"`
	ManualProcessing bool           `json:"manualProcessing"`
	ClerkID          string         `json:"clerkId,omitempty"`
	ReviewNotes      string         `json:"reviewNotes,omitempty"`
	ReviewedAt       *time.Time     `json:"reviewedAt,omitempty"`
	Data             AssessmentData `json:"data"`
	Payment          *Payment       `json:"payment,omitempty"`
	Referrals        []Referral     `json:"referrals,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// AssessmentData is the free-form payload stored as jsonb. Fields written by
// the AI service are kept loosely typed and normalized on read.
type AssessmentData struct {
	Answers       map[string]string      `json:"answers,omitempty"`
	PersonalInfo  *PersonalInfo          `json:"personalInfo,omitempty"`
	Qualification map[string]interface{} `json:"qualification,omitempty"`
	Resume        *ResumeFile            `json:"resume,omitempty"`
	ResumeText    string                 `json:"resumeText,omitempty"`
	FormScore     *FormScoreRecord       `json:"formScore,omitempty"`

	Scores           map[string]interface{} `json:"scores,omitempty"`
	Recommendations  interface{}            `json:"recommendations,omitempty"`
	Summary          string                 `json:"summary,omitempty"`
	Strengths        []string               `json:"strengths,omitempty"`
	Improvements     []string               `json:"improvements,omitempty"`
	CategoryAnalysis map[string]interface{} `json:"categoryAnalysis,omitempty"`
	ResumeAnalysis   map[string]interface{} `json:"resumeAnalysis,omitempty"`
	CareerFit        map[string]interface{} `json:"careerFit,omitempty"`
	ReadinessLevel   string                 `json:"readinessLevel,omitempty"`
	FinalScore       *int                   `json:"finalScore,omitempty"`

	AIProcessed          bool   `json:"aiProcessed"`
	AIAnalysisStarted    bool   `json:"aiAnalysisStarted"`
	AIError              string `json:"aiError,omitempty"`
	ShowProcessingScreen bool   `json:"showProcessingScreen"`
	ProcessingMessage    string `json:"processingMessage,omitempty"`
	RedirectRequired     bool   `json:"redirectRequired"`
	ManualProcessingOnly bool   `json:"manualProcessingOnly"`
}

type PersonalInfo struct {
	FullName string `json:"fullName" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
	Location string `json:"location,omitempty"`
	Age      int    `json:"age,omitempty" validate:"omitempty,min=14,max=100"`
}

type ResumeFile struct {
	Path        string `json:"path"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Extractor   string `json:"extractor,omitempty"`
}

// FormScoreRecord is the deterministic form score persisted before any AI result.
type FormScoreRecord struct {
	CategoryWeights     map[string]int `json:"categoryWeights"`
	RawTotalScore       int            `json:"rawTotalScore"`
	MaxPossibleScore    int            `json:"maxPossibleScore"`
	FormPercentage      int            `json:"formPercentage"`
	EstimatedFinalScore int            `json:"estimatedFinalScore"`
	ReadinessLevel      string         `json:"readinessLevel"`
	Unmatched           []string       `json:"unmatched,omitempty"`
	ScoredAt            time.Time      `json:"scoredAt"`
}

type Payment struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessmentId"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	Provider     string    `json:"provider,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Referral struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessmentId"`
	ReferrerID   string    `json:"referrerId"`
	Commission   float64   `json:"commission"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Coupon struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	IsUsed      bool   `json:"isUsed"`
	MaxUses     int    `json:"maxUses"`
	CurrentUses int    `json:"currentUses"`
}

// AssessmentFilter narrows the admin list. Zero values are ignored.
type AssessmentFilter struct {
	Status  string
	Type    string
	Tier    string
	ClerkID string
	IDs     []string
	Page    int
	PerPage int
}

func (f AssessmentFilter) Limit() int {
	if f.PerPage <= 0 {
		return 20
	}
	if f.PerPage > 100 {
		return 100
	}
	return f.PerPage
}

func (f AssessmentFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

type AssessmentPage struct {
	Items   []Assessment `json:"items"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"perPage"`
}

// ClerkWorkload pairs a clerk id with the number of open manual reviews.
type ClerkWorkload struct {
	ClerkID string `json:"clerkId"`
	Open    int    `json:"open"`
}
