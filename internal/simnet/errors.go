package simnet

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Error taxonomy (spec §7). Only InvalidConfig is ever returned to a
// caller; the rest name the silent-drop cases and are not returned or
// logged by any code path — there are no retries anywhere in the
// simulator.
var (
	// ErrInvalidConfig marks a non-numeric, negative, or out-of-range
	// configuration value. Fatal: the simulator refuses to start.
	ErrInvalidConfig = stderrors.New("simnet: invalid configuration")

	// ErrUnknownParent marks a block whose parent is not present in the
	// receiving peer's BlockTree. Silent drop.
	ErrUnknownParent = stderrors.New("simnet: unknown parent block")

	// ErrNegativeBalance marks a block that would drive some account
	// balance below zero. Silent drop.
	ErrNegativeBalance = stderrors.New("simnet: negative balance")

	// ErrDuplicateBlock marks a block id already present in the tree.
	// Silent drop.
	ErrDuplicateBlock = stderrors.New("simnet: duplicate block")

	// ErrStaleCandidate marks a freshly mined block whose parent is no
	// longer the mining peer's chain tip. Mining restarts; the candidate
	// has no transactions attached yet, so nothing goes back to UTX.
	ErrStaleCandidate = stderrors.New("simnet: stale mining candidate")
)

// errWrap attaches a stack trace and message to err via pkg/errors, used
// at the handful of boundaries that can actually fail (config
// validation, neighbor-list length checks, id minting).
func errWrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}
