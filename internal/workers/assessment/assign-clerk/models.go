// internal/workers/assessment/assign-clerk/models.go
package assignclerk

type Input struct {
	AssessmentID string `json:"assessmentId"`
}

type Output struct {
	ClerkID         string `json:"clerkId"`
	ClerkName       string `json:"clerkName"`
	ClerkEmail      string `json:"clerkEmail"`
	OpenReviews     int    `json:"clerkOpenReviews"`
	AlreadyAssigned bool   `json:"alreadyAssigned"`
}
