package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-alert-service/internal/models"
	"prism-alert-service/internal/notify"
)

func createLadderAlert(t *testing.T, env *testEnv, id string) *models.Alert {
	t.Helper()
	input := riskInput(id)
	input.EscalationRules = []models.EscalationRule{
		{Level: 1, DelayMinutes: 15, Channels: []string{notify.ChannelSMS, notify.ChannelEmail}},
		{Level: 2, DelayMinutes: 30, Channels: []string{notify.ChannelSMS, notify.ChannelEmail}},
	}
	alert, err := env.ctrl.CreateAlert(context.Background(), input)
	require.NoError(t, err)
	return alert
}

func TestSweepEscalatesOncePerLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createLadderAlert(t, env, "r1")

	// Before the first delay nothing fires.
	env.clock.advance(10 * time.Minute)
	env.ctrl.SweepOnce(ctx)
	alert, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, alert.Escalations)

	// Past 15 minutes level 1 fires exactly once, no matter how many sweeps run.
	env.clock.advance(6 * time.Minute)
	env.ctrl.SweepOnce(ctx)
	env.ctrl.SweepOnce(ctx)
	env.ctrl.SweepOnce(ctx)

	alert, err = env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, alert.Escalations, 1)
	assert.Equal(t, 1, alert.Escalations[0].Level)
	assert.True(t, alert.Escalations[0].Success)

	// Past 30 minutes level 2 joins the trail.
	env.clock.advance(15 * time.Minute)
	env.ctrl.SweepOnce(ctx)
	env.ctrl.SweepOnce(ctx)

	alert, err = env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, alert.Escalations, 2)
	assert.Equal(t, 2, alert.Escalations[1].Level)
}

func TestSweepRecordsEscalationAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.sms.err = assert.AnError
	createLadderAlert(t, env, "r1")

	initial, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	initialCount := len(initial.Notifications)

	env.clock.advance(16 * time.Minute)
	env.ctrl.SweepOnce(ctx)

	alert, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, alert.Escalations, 1)
	assert.True(t, alert.Escalations[0].Success, "email delivery makes the escalation a success")

	escalationAttempts := alert.Notifications[initialCount:]
	require.Len(t, escalationAttempts, 2)
	byChannel := map[string]string{}
	for _, att := range escalationAttempts {
		byChannel[att.Channel] = att.Status
	}
	assert.Equal(t, "failed", byChannel[notify.ChannelSMS])
	assert.Equal(t, "sent", byChannel[notify.ChannelEmail])
}

func TestSweepSkipsAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createLadderAlert(t, env, "r1")

	_, err := env.ctrl.Acknowledge(ctx, "r1", "operator-1")
	require.NoError(t, err)

	env.clock.advance(time.Hour)
	env.ctrl.SweepOnce(ctx)

	alert, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, alert.Escalations, "acknowledged alerts never escalate")
}

func TestSweepHonorsRuleConditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := riskInput("r1")
	input.EscalationRules = []models.EscalationRule{
		{Level: 1, DelayMinutes: 15, Channels: []string{notify.ChannelEmail}, Conditions: []string{"not_acknowledged"}},
	}
	_, err := env.ctrl.CreateAlert(ctx, input)
	require.NoError(t, err)

	env.clock.advance(16 * time.Minute)
	env.ctrl.SweepOnce(ctx)

	alert, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, alert.Escalations, 1)
}

func TestSweepReactivatesLapsedSuppression(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createLadderAlert(t, env, "r1")

	_, err := env.ctrl.Suppress(ctx, "r1", "operator-1", "planned blast", 30)
	require.NoError(t, err)

	// Still inside the suppression window: untouched.
	env.clock.advance(20 * time.Minute)
	env.ctrl.SweepOnce(ctx)
	alert, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuppressed, alert.Status)
	assert.Empty(t, alert.Escalations)

	// Past the window: reactivated, and escalation resumes on its own schedule.
	env.clock.advance(11 * time.Minute)
	env.ctrl.SweepOnce(ctx)
	alert, err = env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, alert.Status)
	require.Len(t, alert.Escalations, 1, "level 1 fires in the same sweep once the alert is active again")
}

func TestSweepAutoResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := riskInput("r1")
	input.AutoResolve = true
	input.AutoResolveAfterMin = 120
	_, err := env.ctrl.CreateAlert(ctx, input)
	require.NoError(t, err)

	env.clock.advance(119 * time.Minute)
	env.ctrl.SweepOnce(ctx)
	alert, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.NotEqual(t, models.StatusResolved, alert.Status)

	env.clock.advance(2 * time.Minute)
	env.ctrl.SweepOnce(ctx)
	alert, err = env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, alert.Status)
	assert.Equal(t, "system", alert.ResolvedBy)
	assert.Equal(t, "auto_resolved", alert.Metadata["resolution_note"])
	require.NotNil(t, alert.ResolvedAt)
}

func TestSweepAutoResolveDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := riskInput("r1")
	input.AutoResolve = false
	input.AutoResolveAfterMin = 10
	_, err := env.ctrl.CreateAlert(ctx, input)
	require.NoError(t, err)

	env.clock.advance(time.Hour)
	env.ctrl.SweepOnce(ctx)
	alert, err := env.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.NotEqual(t, models.StatusResolved, alert.Status)
}
