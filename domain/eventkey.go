package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Event keys bridge local task identity to remote event identity. For the
// same inputs a key is byte-identical across runs, which lets a pass diff
// local intent against the meta map without storing full event bodies.
// Transient display state (OVERDUE vs PENDING prefixes) is deliberately
// excluded so a status flip updates the event body without changing its key.

// MirrorEventKey derives the identity of a mirror event from the course
// scope, the deadline URL and its raw time label.
func MirrorEventKey(scope, url, timeString string) string {
	sum := sha256.Sum256([]byte(scope + "|" + url + "|" + timeString))
	return hex.EncodeToString(sum[:])[:32]
}

// StudyEventKey derives the identity of a study block from the owning task
// (user + deadline), the calendar day and the block length in hours.
func StudyEventKey(userID string, deadlineID int64, day time.Time, blockHours int) string {
	return fmt.Sprintf("%s_%s_%dh", StudyTaskKey(userID, deadlineID), day.Format("2006-01-02"), blockHours)
}

// StudyTaskKey identifies a schedulable task independent of any day or block.
func StudyTaskKey(userID string, deadlineID int64) string {
	return fmt.Sprintf("study_user%s_deadline%d", userID, deadlineID)
}
