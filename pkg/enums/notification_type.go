package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeComment     NotificationType = "comment"
	NotificationTypePost        NotificationType = "post"
	NotificationTypeLinkedIssue NotificationType = "linked_issue"
	NotificationTypeBranch      NotificationType = "branch"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeComment,
	NotificationTypePost,
	NotificationTypeLinkedIssue,
	NotificationTypeBranch,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// Label is the human-readable name used when a mention has no explicit
// context label ("You were mentioned in a comment").
func (n NotificationType) Label() string {
	switch n {
	case NotificationTypeComment:
		return "a comment"
	case NotificationTypePost:
		return "a post"
	case NotificationTypeLinkedIssue:
		return "a linked issue"
	case NotificationTypeBranch:
		return "a generated branch"
	}
	return string(n)
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
