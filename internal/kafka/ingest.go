package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"prism-alert-service/internal/alerts"
	"prism-alert-service/internal/models"
)

// RegisterAlertHandlers binds the two inbound topics to the lifecycle
// controller, normalizing payloads into alert-creation requests.
func RegisterAlertHandlers(c *Consumer, ctrl *alerts.Controller, riskTopic, sensorTopic string) {
	c.Subscribe(riskTopic, func(ctx context.Context, payload []byte) error {
		var assessment models.RiskAssessment
		if err := json.Unmarshal(payload, &assessment); err != nil {
			return fmt.Errorf("failed to decode risk assessment: %w", err)
		}
		if assessment.AssessmentID == "" {
			return fmt.Errorf("risk assessment missing assessment_id")
		}
		return ctrl.ProcessRiskAssessment(ctx, assessment)
	})

	c.Subscribe(sensorTopic, func(ctx context.Context, payload []byte) error {
		var event models.SensorEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("failed to decode sensor event: %w", err)
		}
		if event.SensorID == "" {
			return fmt.Errorf("sensor event missing sensor_id")
		}
		return ctrl.ProcessSensorEvent(ctx, event)
	})
}
