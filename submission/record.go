package submission

import (
	"github.com/google/uuid"
	"github.com/programme-lv/arena/answers"
)

type Entry struct {
	ProblemID string
	Answer    answers.Answer
}

// Record is the write-once payload of a bulk submission.
type Record struct {
	IdempotencyKey uuid.UUID
	ContestID      string
	IsVirtual      bool
	Entries        []Entry
	// Dropped lists answered ids that are not part of the contest.
	Dropped []string
}

// NewRecord orders entries by the contest problem order and leaves out
// answers for problems the contest does not list.
func NewRecord(contestID string, virtual bool, problemIDs []string, snap map[string]answers.Answer) Record {
	rec := Record{
		IdempotencyKey: uuid.New(),
		ContestID:      contestID,
		IsVirtual:      virtual,
		Entries:        make([]Entry, 0, len(snap)),
	}
	known := make(map[string]bool, len(problemIDs))
	for _, id := range problemIDs {
		known[id] = true
		if a, ok := snap[id]; ok {
			rec.Entries = append(rec.Entries, Entry{ProblemID: id, Answer: a})
		}
	}
	for id := range snap {
		if !known[id] {
			rec.Dropped = append(rec.Dropped, id)
		}
	}
	return rec
}
