package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the v0 transaction container.
//
// CometBFT transactions are opaque bytes. For v0 localnet we use JSON-encoded
// txs to move fast; this is NOT the final protocol encoding.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// v0 tx auth:
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: logical signer id (account id, or hex ephemeral pubkey for session-signed txs).
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Bank ----

type BankMintTx struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BankSendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ---- Auth (v0) ----

// v0: account pubkey registration for tx authentication.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Poker ----

type PokerCreateTableTx struct {
	Creator    string `json:"creator"`
	SmallBlind uint64 `json:"smallBlind"`
	BigBlind   uint64 `json:"bigBlind"`
	MinBuyIn   uint64 `json:"minBuyIn"`
	MaxBuyIn   uint64 `json:"maxBuyIn"`
}

type PokerJoinTx struct {
	Player   string `json:"player"`
	TableKey string `json:"tableKey"`
	BuyIn    uint64 `json:"buyIn"`
}

type PokerLeaveTx struct {
	Player   string `json:"player"`
	TableKey string `json:"tableKey"`
}

// PokerActionTx carries one gameplay action, authorized by a session. The
// envelope must be signed by the session's ephemeral key, not the authority.
type PokerActionTx struct {
	SessionKey string `json:"sessionKey"`
	TableKey   string `json:"tableKey"`
	Action     string `json:"action"`           // fold|call|bet|raise|allIn
	Amount     uint64 `json:"amount,omitempty"` // for bet/raise only
}

// ---- Sessions ----

type SessionCreateTx struct {
	Authority       string `json:"authority"`
	TableKey        string `json:"tableKey"`
	EphemeralSigner []byte `json:"ephemeralSigner"` // base64 (32 bytes)
	Expiry          int64  `json:"expiry"`          // unix seconds
}

type SessionRevokeTx struct {
	Authority  string `json:"authority"`
	SessionKey string `json:"sessionKey"`
}
