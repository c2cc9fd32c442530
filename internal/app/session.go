package app

import (
	"crypto/ed25519"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"goldenflop/apps/chain/internal/codec"
	"goldenflop/apps/chain/internal/state"
)

func sessionCreate(st *state.State, msg codec.SessionCreateTx, nowUnix int64) (*abci.ExecTxResult, error) {
	if msg.Authority == "" {
		return nil, fmt.Errorf("missing authority")
	}
	if len(msg.EphemeralSigner) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ephemeralSigner must be %d bytes", ed25519.PublicKeySize)
	}
	// The expiry guard applies at creation, not just at use.
	if msg.Expiry <= nowUnix {
		return nil, errorsmod.Wrapf(ErrSessionExpired, "expiry=%d now=%d", msg.Expiry, nowUnix)
	}

	t := st.Tables[msg.TableKey]
	if t == nil {
		return nil, fmt.Errorf("table not found")
	}

	key := state.SessionKey(msg.Authority, msg.TableKey)
	if st.Sessions[key] != nil {
		return nil, fmt.Errorf("session already exists for authority %q", msg.Authority)
	}

	idx, ok := t.FindPlayer(msg.Authority)
	if !ok {
		return nil, errorsmod.Wrapf(ErrPlayerNotFound, "authority=%q", msg.Authority)
	}

	st.Sessions[key] = &state.Session{
		Key:             key,
		Authority:       msg.Authority,
		EphemeralSigner: append([]byte(nil), msg.EphemeralSigner...),
		Table:           msg.TableKey,
		CreatedAt:       nowUnix,
		Expiry:          msg.Expiry,
	}

	// Denormalized cache of the delegated key on the seat.
	t.Players[idx].SessionKey = append([]byte(nil), msg.EphemeralSigner...)

	return okEvent("SessionCreated", map[string]string{
		"sessionKey": key,
		"authority":  msg.Authority,
		"tableKey":   msg.TableKey,
		"expiry":     fmt.Sprintf("%d", msg.Expiry),
	}), nil
}

func sessionRevoke(st *state.State, msg codec.SessionRevokeTx) (*abci.ExecTxResult, error) {
	sess := st.Sessions[msg.SessionKey]
	if sess == nil {
		return nil, fmt.Errorf("session not found")
	}
	if sess.Authority != msg.Authority {
		return nil, errorsmod.Wrapf(ErrInvalidSigner, "authority=%q", msg.Authority)
	}

	delete(st.Sessions, msg.SessionKey)

	// Clear the seat's cached key in the same tx so the cache cannot outlive
	// the session record.
	if t := st.Tables[sess.Table]; t != nil {
		if idx, ok := t.FindPlayer(sess.Authority); ok {
			t.Players[idx].SessionKey = nil
		}
	}

	return okEvent("SessionRevoked", map[string]string{
		"sessionKey": msg.SessionKey,
		"authority":  msg.Authority,
	}), nil
}
