package storage

import "fmt"

// Location tags a stored object as either staged in the pending tier or
// finalized at a concrete block number.
type Location struct {
	Pending     bool   `json:"pending,omitempty"`
	BlockNumber uint64 `json:"block_number"`
}

var LocationPending = Location{Pending: true}

func FinalizedAt(blockNumber uint64) Location {
	return Location{BlockNumber: blockNumber}
}

func (l Location) String() string {
	if l.Pending {
		return "pending"
	}
	return fmt.Sprintf("block %d", l.BlockNumber)
}

// ResolveVisibility reports whether a record written at `record` is visible
// to a read anchored at `requested`.
//
// A pending-aware read sees everything: the pending tier sits on top of the
// whole finalized chain. A read anchored at block N sees a finalized record
// only if the record was finalized at or before N, and never sees pending
// data.
func ResolveVisibility(requested, record Location) bool {
	switch {
	case requested.Pending:
		return true
	case record.Pending:
		return false
	default:
		return record.BlockNumber <= requested.BlockNumber
	}
}
