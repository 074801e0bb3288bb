package contract

import "errors"

// Contract errors. Every operation aborts and propagates one of these
// synchronously; the ledger's all-or-nothing commit discards any writes
// attempted in the failing invocation, and no operation retries internally.
var (
	// ErrNotFound is returned when no asset exists under the requested id.
	ErrNotFound = errors.New("asset does not exist")
	// ErrAlreadyExists is returned when creation derives an id that is
	// already on the ledger. This is the duplicate-submission guard: a
	// retried creation call re-derives the same id.
	ErrAlreadyExists = errors.New("asset already exists")
	// ErrNotAuthorized is returned when the caller's organisation matches
	// neither role the operation requires (owner, or pending transfer
	// target for completion).
	ErrNotAuthorized = errors.New("caller organisation is not authorized for this asset")
	// ErrTransferPending is returned when a transfer is requested while an
	// earlier request is still outstanding.
	ErrTransferPending = errors.New("a transfer has already been requested for this asset")
	// ErrTransferNotRequested is returned when completion is attempted with
	// no pending transfer.
	ErrTransferNotRequested = errors.New("transfer has not been requested for this asset")
)
