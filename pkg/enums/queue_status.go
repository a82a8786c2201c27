package enums

import "fmt"

// QueueStatus tracks a generated branch's position in the PR queue.
type QueueStatus string

const (
	QueueStatusPending QueueStatus = "pending"
	QueueStatusRunning QueueStatus = "running"
	QueueStatusDone    QueueStatus = "done"
	QueueStatusFailed  QueueStatus = "failed"
)

var validQueueStatuses = []QueueStatus{
	QueueStatusPending,
	QueueStatusRunning,
	QueueStatusDone,
	QueueStatusFailed,
}

func (s QueueStatus) IsValid() bool {
	for _, candidate := range validQueueStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseQueueStatus(value string) (QueueStatus, error) {
	for _, candidate := range validQueueStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid queue status %q", value)
}

// QueueOutcome records how a finished queue entry ended.
type QueueOutcome string

const (
	QueueOutcomeSuccess QueueOutcome = "success"
	QueueOutcomeFailure QueueOutcome = "failure"
)
