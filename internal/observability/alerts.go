package observability

import (
	"go.uber.org/zap"
)

// Alerter is the operator-visible failure surface. Abandoned tasks and expiry
// sweeps are reported here; these are monitoring concerns, never propagated
// back to the action that triggered the notification.
type Alerter interface {
	TaskAbandoned(taskID, correlationKey, lastError string, attemptCount int)
	InvitationsExpired(count int)
}

// LogAlerter reports operator alerts through the structured log at error
// level, where the alerting pipeline picks them up.
type LogAlerter struct {
	logger *zap.Logger
}

func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) TaskAbandoned(taskID, correlationKey, lastError string, attemptCount int) {
	if a == nil || a.logger == nil {
		return
	}
	a.logger.Error("notification task abandoned",
		zap.String("taskId", taskID),
		zap.String("correlationKey", correlationKey),
		zap.String("lastError", lastError),
		zap.Int("attemptCount", attemptCount),
	)
}

func (a *LogAlerter) InvitationsExpired(count int) {
	if a == nil || a.logger == nil {
		return
	}
	if count == 0 {
		return
	}
	a.logger.Warn("pending invitations expired by sweep",
		zap.Int("count", count),
	)
}
