package app

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"goldenflop/apps/chain/internal/codec"
	"goldenflop/apps/chain/internal/state"
)

// pokerAction applies one gameplay action for the seat owned by the session's
// authority. This is a single-pot model: it validates authorization and chip
// sufficiency only, with no betting rounds, turn order, or min-raise sizing.
func pokerAction(st *state.State, env codec.TxEnvelope, msg codec.PokerActionTx, nowUnix int64) (*abci.ExecTxResult, error) {
	sess := st.Sessions[msg.SessionKey]
	if sess == nil {
		return nil, fmt.Errorf("session not found")
	}

	// Precondition order matters: expiry, signer, seat, in-hand.
	if nowUnix >= sess.Expiry {
		return nil, errorsmod.Wrapf(ErrSessionExpired, "expiry=%d now=%d", sess.Expiry, nowUnix)
	}
	if err := requireSessionAuth(env, sess); err != nil {
		return nil, err
	}
	if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
		return nil, err
	}

	t := st.Tables[msg.TableKey]
	if t == nil {
		return nil, fmt.Errorf("table not found")
	}
	if sess.Table != msg.TableKey {
		return nil, errorsmod.Wrapf(ErrInvalidSigner, "session scoped to table %q", sess.Table)
	}

	idx, ok := t.FindPlayer(sess.Authority)
	if !ok {
		return nil, errorsmod.Wrapf(ErrPlayerNotFound, "authority=%q", sess.Authority)
	}
	slot := t.Players[idx]
	if !slot.InHand {
		return nil, ErrNotInHand
	}

	switch msg.Action {
	case "fold":
		slot.InHand = false

	case "call":
		// Single-street model: the amount owed is approximated by the big
		// blind; no per-player current bet is tracked.
		pot, err := addUint64Checked(t.Pot, t.BigBlind, "pot")
		if err != nil {
			return nil, err
		}
		t.Pot = pot

	case "bet", "raise":
		if msg.Amount > slot.Chips {
			return nil, errorsmod.Wrapf(ErrInsufficientChips, "amount=%d chips=%d", msg.Amount, slot.Chips)
		}
		pot, err := addUint64Checked(t.Pot, msg.Amount, "pot")
		if err != nil {
			return nil, err
		}
		slot.Chips -= msg.Amount
		t.Pot = pot

	case "allIn":
		pot, err := addUint64Checked(t.Pot, slot.Chips, "pot")
		if err != nil {
			return nil, err
		}
		t.Pot = pot
		slot.Chips = 0

	default:
		return nil, fmt.Errorf("unknown action: %q", msg.Action)
	}

	return okEvent("ActionApplied", map[string]string{
		"tableKey": msg.TableKey,
		"seat":     fmt.Sprintf("%d", idx),
		"player":   sess.Authority,
		"action":   msg.Action,
		"amount":   fmt.Sprintf("%d", msg.Amount),
		"pot":      fmt.Sprintf("%d", t.Pot),
	}), nil
}
