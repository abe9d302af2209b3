// internal/workers/assessment/send-notification/models.go
package sendnotification

type Input struct {
	AssessmentID     string `json:"assessmentId"`
	AssessmentType   string `json:"assessmentType,omitempty"`
	NotificationType string `json:"notificationType"`

	RecipientName  string `json:"recipientName,omitempty"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
	RecipientPhone string `json:"recipientPhone,omitempty"`

	ClerkName  string `json:"clerkName,omitempty"`
	ClerkEmail string `json:"clerkEmail,omitempty"`

	ResultsPath    string `json:"resultsPath,omitempty"`
	ReadinessLevel string `json:"readinessLevel,omitempty"`
	FinalScore     *int   `json:"finalScore,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"notificationStatus"` // "sent", "failed", "disabled"
	EmailID        string `json:"emailMessageId,omitempty"`
	SMSID          string `json:"smsMessageId,omitempty"`
	SentAt         string `json:"sentAt"` // ISO 8601
}
