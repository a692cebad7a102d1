package timeline

import (
	"time"

	id "redressal/pkg/domain"
)

// MessageSubmitted is the system entry appended when a complaint is created.
// Every complaint has this entry from the same unit of work as its insert.
const MessageSubmitted = "Complaint submitted"

// Entry is one immutable line in a complaint's timeline. Entries are
// append-only: nothing edits or deletes them after creation.
type Entry struct {
	ID          id.EntryID      `json:"id"`
	ComplaintID id.ComplaintID  `json:"complaint_id"`
	AuthorID    *id.PrincipalID `json:"author_id,omitempty"` // nil for system-generated entries
	Message     string          `json:"message"`
	CreatedAt   time.Time       `json:"created_at"`
}
