package models

const (
	NotifyResultsReady    = "results_ready"
	NotifyClerkAssigned   = "clerk_assigned"
	NotifyReviewCompleted = "review_completed"
)

const (
	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
)

// Recipient is the contact resolved for a notification.
type Recipient struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
}

type NotificationTemplate struct {
	Type     string `json:"type"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
	SMS      string `json:"sms,omitempty"`
}
