// internal/workers/assessment/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strings"

	"career-readiness/internal/models"
)

var templates = map[string]models.NotificationTemplate{
	models.NotifyResultsReady: {
		Type:    models.NotifyResultsReady,
		Subject: "Your {{brand}} results are ready",
		Body: "Hi {{name}},\n\nYour assessment results are ready. Readiness level: {{readinessLevel}}.\n\n" +
			"View them at {{resultsUrl}}\n",
		SMS: "{{brand}}: your assessment results are ready. {{resultsUrl}}",
	},
	models.NotifyClerkAssigned: {
		Type:    models.NotifyClerkAssigned,
		Subject: "New assessment to review ({{assessmentType}})",
		Body: "Hi {{clerkName}},\n\nAssessment {{assessmentId}} has been assigned to you for review.\n\n" +
			"Open it at {{adminUrl}}\n",
	},
	models.NotifyReviewCompleted: {
		Type:    models.NotifyReviewCompleted,
		Subject: "Your {{brand}} review is complete",
		Body: "Hi {{name}},\n\nAn expert has finished reviewing your assessment. Readiness level: {{readinessLevel}}.\n\n" +
			"View the full report at {{resultsUrl}}\n",
		SMS: "{{brand}}: your expert review is complete. {{resultsUrl}}",
	},
}

// renderTemplate replaces {{key}} placeholders and drops any left unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case nil:
		default:
			value = fmt.Sprintf("%v", t)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
