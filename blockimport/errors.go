package blockimport

import (
	"errors"
	"fmt"

	"github.com/halcyonlabs/starknode/felt"
)

// Import error kinds. Mismatch errors carry expected/got context via
// wrapping; match with errors.Is.
var (
	// ErrLatestBlockN: the candidate's claimed block number does not extend
	// the local head. Recoverable with IgnoreBlockOrder.
	ErrLatestBlockN = errors.New("block number mismatch")

	// ErrParentHash: the candidate's claimed parent hash is not the local
	// head's hash. Recoverable with IgnoreBlockOrder.
	ErrParentHash = errors.New("parent hash mismatch")

	// ErrGlobalStateRoot: the computed global state root differs from the
	// asserted one. Never overridable when the trie computation actually ran.
	ErrGlobalStateRoot = errors.New("global state root mismatch")

	// ErrBlockHash: the computed block hash differs from the asserted one.
	// Recoverable with IgnoreBlockOrder, except where the historical mainnet
	// exception accepts the asserted hash outright.
	ErrBlockHash = errors.New("block hash mismatch")

	// ErrStorage wraps an underlying persistence failure.
	ErrStorage = errors.New("storage error")

	// ErrInternal signals a caller or configuration bug, never bad input
	// data. Fatal, not recoverable.
	ErrInternal = errors.New("internal error")
)

func errBlockNumber(expected, got uint64) error {
	return fmt.Errorf("%w: expected %d, got %d", ErrLatestBlockN, expected, got)
}

func errParentHash(expected, got felt.Felt) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrParentHash, expected, got)
}

func errGlobalStateRoot(expected, got felt.Felt) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrGlobalStateRoot, expected, got)
}

func errBlockHash(expected, got felt.Felt) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrBlockHash, expected, got)
}

func errInternal(msg string) error {
	return fmt.Errorf("%w: %s", ErrInternal, msg)
}

// makeStorageError attaches a human-readable operation context to an
// underlying persistence failure.
func makeStorageError(context string) func(error) error {
	return func(err error) error {
		return fmt.Errorf("%w: %s: %w", ErrStorage, context, err)
	}
}
