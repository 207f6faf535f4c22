package dedup

import "github.com/rotisserie/eris"

// Sentinel errors surfaced to callers. Match with eris.Is.
var (
	// ErrLeadNotFound indicates a lead id that does not resolve within the
	// given account.
	ErrLeadNotFound = eris.New("dedup: lead not found")

	// ErrMergeConflict indicates an invalid merge pair: the surviving and
	// removed ids are identical, or the removed lead disappeared between
	// scan and merge.
	ErrMergeConflict = eris.New("dedup: merge conflict")
)
