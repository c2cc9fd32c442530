package app

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"goldenflop/apps/chain/internal/codec"
	"goldenflop/apps/chain/internal/state"
)

func pokerCreateTable(st *state.State, msg codec.PokerCreateTableTx) (*abci.ExecTxResult, error) {
	if msg.Creator == "" {
		return nil, fmt.Errorf("missing creator")
	}
	if msg.SmallBlind == 0 || msg.BigBlind < msg.SmallBlind {
		return nil, fmt.Errorf("invalid blinds")
	}
	if msg.MinBuyIn == 0 || msg.MaxBuyIn < msg.MinBuyIn {
		return nil, fmt.Errorf("invalid buy-in range")
	}

	key := state.TableKey(msg.Creator)
	if st.Tables[key] != nil {
		return nil, fmt.Errorf("table already exists for creator %q", msg.Creator)
	}

	st.Tables[key] = &state.Table{
		Key:        key,
		Creator:    msg.Creator,
		SmallBlind: msg.SmallBlind,
		BigBlind:   msg.BigBlind,
		MinBuyIn:   msg.MinBuyIn,
		MaxBuyIn:   msg.MaxBuyIn,
		Pot:        0,
		State:      state.TableWaitingForPlayers,
		DeckSeed:   0,
	}

	return okEvent("TableCreated", map[string]string{
		"tableKey": key,
		"creator":  msg.Creator,
	}), nil
}

func pokerJoin(st *state.State, msg codec.PokerJoinTx) (*abci.ExecTxResult, error) {
	t := st.Tables[msg.TableKey]
	if t == nil {
		return nil, fmt.Errorf("table not found")
	}
	if t.State != state.TableWaitingForPlayers && t.State != state.TableBetweenHands {
		return nil, errorsmod.Wrapf(ErrInvalidTableState, "state=%s", t.State)
	}
	if t.PlayerCount >= state.MaxPlayers {
		return nil, ErrTableFull
	}
	if msg.BuyIn < t.MinBuyIn || msg.BuyIn > t.MaxBuyIn {
		return nil, errorsmod.Wrapf(ErrInvalidBuyIn, "buyIn=%d range=[%d,%d]", msg.BuyIn, t.MinBuyIn, t.MaxBuyIn)
	}
	if _, ok := t.FindPlayer(msg.Player); ok {
		return nil, errorsmod.Wrapf(ErrAlreadySeated, "player=%q", msg.Player)
	}

	// Escrow the buy-in from the player's bank balance.
	if err := st.Debit(msg.Player, msg.BuyIn); err != nil {
		return nil, err
	}

	seat := int(t.PlayerCount)
	t.Players[seat] = &state.PlayerSlot{
		Authority: msg.Player,
		Chips:     msg.BuyIn,
		InHand:    true,
	}
	t.PlayerCount++

	return okEvent("PlayerJoined", map[string]string{
		"tableKey": msg.TableKey,
		"seat":     fmt.Sprintf("%d", seat),
		"player":   msg.Player,
		"buyIn":    fmt.Sprintf("%d", msg.BuyIn),
	}), nil
}

func pokerLeave(st *state.State, msg codec.PokerLeaveTx) (*abci.ExecTxResult, error) {
	t := st.Tables[msg.TableKey]
	if t == nil {
		return nil, fmt.Errorf("table not found")
	}
	idx, ok := t.FindPlayer(msg.Player)
	if !ok {
		return nil, errorsmod.Wrapf(ErrPlayerNotFound, "player=%q", msg.Player)
	}

	chips := t.Players[idx].Chips
	t.Players[idx] = nil
	t.CompactPlayers()

	// Settle the remaining stack back to the player's bank balance.
	if err := st.Credit(msg.Player, chips); err != nil {
		return nil, err
	}

	return okEvent("PlayerLeft", map[string]string{
		"tableKey":      msg.TableKey,
		"seat":          fmt.Sprintf("%d", idx),
		"player":        msg.Player,
		"chipsReturned": fmt.Sprintf("%d", chips),
	}), nil
}
