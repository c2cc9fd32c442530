package app

import errorsmod "cosmossdk.io/errors"

// Codespace for the table/session state machine.
const errCodespace = "goldenflop"

// Sentinel errors. Every precondition failure aborts the whole tx; the staged
// state is discarded, so none of these can leave partial effects behind.
var (
	ErrInvalidTableState = errorsmod.Register(errCodespace, 1, "invalid table state for this action")
	ErrTableFull         = errorsmod.Register(errCodespace, 2, "table is full")
	ErrInvalidBuyIn      = errorsmod.Register(errCodespace, 3, "buy-in out of range")
	ErrSessionExpired    = errorsmod.Register(errCodespace, 4, "session expired")
	ErrInvalidSigner     = errorsmod.Register(errCodespace, 5, "signer is not the session key")
	ErrPlayerNotFound    = errorsmod.Register(errCodespace, 6, "player not found at table")
	ErrNotInHand         = errorsmod.Register(errCodespace, 7, "player not in current hand")
	ErrInsufficientChips = errorsmod.Register(errCodespace, 8, "insufficient chips")

	// The original program let one authority occupy two seats; rejecting that
	// keeps FindPlayer unambiguous.
	ErrAlreadySeated = errorsmod.Register(errCodespace, 9, "authority already seated at table")
)
