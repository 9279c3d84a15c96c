package interfaces

import (
	"errors"

	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
)

// ErrCrypto is the base error for key wrap/unwrap and cipher failures.
// All crypto failures fail closed and never carry key material.
var ErrCrypto = cryptoutils.ErrCrypto

var (
	// ErrFileNotFound is returned when a file id does not resolve to a
	// registered file. Surfaced to requesters as INVALID_REQUEST.
	ErrFileNotFound = errors.New("file not found")

	// ErrPrincipalNotFound is returned when a principal id is not known to
	// the identity store. Surfaced to requesters as INVALID_REQUEST.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrNotOwner is returned when a revocation is attempted by a principal
	// other than the file's owner.
	ErrNotOwner = errors.New("principal is not the file owner")

	// ErrLedgerIntegrity is returned by chain verification when a stored
	// hash or prev_hash link does not recompute. Append never raises it.
	ErrLedgerIntegrity = errors.New("audit ledger integrity violation")

	// ErrBrokerLocked is returned by a share-sealed broker before enough
	// admin shares have been submitted to reconstruct the escrow key.
	ErrBrokerLocked = errors.New("key broker is locked")
)
