package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecurityLoggerLevelsAndMasking(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewSecurityLoggerWith(zap.New(core), "contact-relay", "test")
	ctx := context.Background()

	sl.LogSubmission(ctx, EventContactSubmitted, "jane@example.com", "203.0.113.7", "req-1", nil)
	sl.LogRateLimitTriggered(ctx, "203.0.113.7", "curl/8", "req-2", "/api/send-email", 6)
	sl.LogSubmission(ctx, EventDeliveryFailed, "jane@example.com", "203.0.113.7", "req-3",
		map[string]interface{}{"error": "smtp: 535"})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "contact_submitted", entries[0].Message)
	assert.Equal(t, "j***@example.com", entries[0].ContextMap()["subject_value"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "203.0.113.7", entries[1].ContextMap()["subject_value"])
	assert.Contains(t, entries[1].ContextMap()["details"], `"count":6`)

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "req-3", entries[2].ContextMap()["request_id"])
}

func TestNopSecurityLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NopSecurityLogger().Log(context.Background(), SecurityEvent{Event: EventCaptchaFailed})
	})
}

func TestLogSubmissionWithoutEmail(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewSecurityLoggerWith(zap.New(core), "contact-relay", "test")

	sl.LogSubmission(context.Background(), EventAttachmentRejected, "", "203.0.113.7", "req-1",
		map[string]interface{}{"reason": "not_image"})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "email", fields["subject_type"])
	assert.NotContains(t, fields, "subject_value")
	assert.Equal(t, "203.0.113.7", fields["ip"])
}
