package assistant

import "time"

// archiveThreshold is how old the oldest message must be before a
// conversation is worth archiving.
const archiveThreshold = 30 * 24 * time.Hour

// Archive is the exportable conversation snapshot format.
type Archive struct {
	Version      string        `json:"version"`
	ExportDate   time.Time     `json:"exportDate"`
	Messages     []ChatMessage `json:"messages"`
	MessageCount int           `json:"messageCount"`
}

// BuildArchive wraps messages in the versioned export envelope.
func BuildArchive(messages []ChatMessage, now time.Time) Archive {
	return Archive{
		Version:      "1.0",
		ExportDate:   now,
		Messages:     messages,
		MessageCount: len(messages),
	}
}

// NeedsArchiving reports whether the oldest message is past the threshold.
// Messages without a timestamp never trigger archiving.
func NeedsArchiving(messages []ChatMessage, now time.Time) bool {
	if len(messages) == 0 {
		return false
	}
	oldest := messages[0].Timestamp
	if oldest.IsZero() {
		return false
	}
	return now.Sub(oldest) >= archiveThreshold
}

// SplitOld partitions messages at the archive threshold, preserving order.
// Messages without a timestamp count as recent.
func SplitOld(messages []ChatMessage, now time.Time) (old, recent []ChatMessage) {
	cutoff := now.Add(-archiveThreshold)
	for _, msg := range messages {
		if !msg.Timestamp.IsZero() && msg.Timestamp.Before(cutoff) {
			old = append(old, msg)
		} else {
			recent = append(recent, msg)
		}
	}
	return old, recent
}
