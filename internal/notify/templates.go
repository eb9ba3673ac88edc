package notify

import (
	"fmt"
	"strings"

	"prism-alert-service/internal/models"
)

// Template is a subject/body pair with {token} placeholders. Recognized
// tokens: {title}, {message}, {severity}, {category}, {source}, {age}, {level}.
type Template struct {
	Subject string
	Body    string
}

// Render expands the template against the alert plus any extra tokens.
func (t Template) Render(alert *models.Alert, extra map[string]string) Message {
	pairs := []string{
		"{title}", alert.Title,
		"{message}", alert.Message,
		"{severity}", string(alert.Severity),
		"{category}", string(alert.Category),
		"{source}", alert.SourceID,
	}
	for k, v := range extra {
		pairs = append(pairs, fmt.Sprintf("{%s}", k), v)
	}
	r := strings.NewReplacer(pairs...)
	return Message{
		Subject: r.Replace(t.Subject),
		Body:    r.Replace(t.Body),
	}
}

// DefaultTemplates returns the stock per-category template set and fallback.
func DefaultTemplates() (map[models.Category]Template, Template) {
	byCategory := map[models.Category]Template{
		models.CategoryRisk: {
			Subject: "[{severity}] Risk alert: {title}",
			Body:    "{message}\nCategory: {category}\nSource: {source}",
		},
		models.CategorySensorFailure: {
			Subject: "[{severity}] Sensor failure: {title}",
			Body:    "{message}\nSensor: {source}",
		},
		models.CategoryCommunicationLoss: {
			Subject: "[{severity}] Communication lost: {title}",
			Body:    "{message}\nSource: {source}",
		},
		models.CategoryBatteryLow: {
			Subject: "[{severity}] Battery low: {title}",
			Body:    "{message}\nSensor: {source}",
		},
		models.CategoryWeatherWarning: {
			Subject: "[{severity}] Weather warning: {title}",
			Body:    "{message}",
		},
	}
	fallback := Template{
		Subject: "[{severity}] Alert: {title}",
		Body:    "{message}\nCategory: {category}\nSource: {source}",
	}
	return byCategory, fallback
}

// EscalationTemplate renders escalation notifications carrying the alert's
// age and the escalation level.
func EscalationTemplate() Template {
	return Template{
		Subject: "[ESCALATION L{level}] {title}",
		Body:    "Alert unresolved for {age} minutes, escalated to level {level}.\n{message}\nSeverity: {severity}\nSource: {source}",
	}
}
