package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"goldenflop/apps/chain/internal/codec"
	"goldenflop/apps/chain/internal/state"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func txBytes(t *testing.T, typ string, value any) []byte {
	t.Helper()
	return mustMarshal(t, map[string]any{
		"type":  typ,
		"value": value,
	})
}

// testEd25519Key derives a deterministic keypair from a logical id.
func testEd25519Key(id string) (ed25519.PublicKey, ed25519.PrivateKey) {
	seed := sha256.Sum256([]byte("goldenflop/test/" + id))
	priv := ed25519.NewKeyFromSeed(seed[:])
	return priv.Public().(ed25519.PublicKey), priv
}

var testNonces = map[string]uint64{}

func nextTestNonce(signer string) string {
	testNonces[signer]++
	return strconv.FormatUint(testNonces[signer], 10)
}

// txBytesSigned builds an envelope signed with the account key of signerID.
func txBytesSigned(t *testing.T, typ string, value any, signerID string) []byte {
	t.Helper()
	valueBytes := mustMarshal(t, value)
	nonce := nextTestNonce(signerID)
	_, priv := testEd25519Key(signerID)
	sig := ed25519.Sign(priv, txAuthSignBytesV0(typ, valueBytes, nonce, signerID))
	return mustMarshal(t, codec.TxEnvelope{
		Type:   typ,
		Value:  valueBytes,
		Nonce:  nonce,
		Signer: signerID,
		Sig:    sig,
	})
}

// txBytesSessionSigned builds an envelope signed with the ephemeral key
// derived from keyID; the envelope signer is the hex pubkey.
func txBytesSessionSigned(t *testing.T, typ string, value any, keyID string) []byte {
	t.Helper()
	pub, priv := testEd25519Key(keyID)
	signer := hex.EncodeToString(pub)
	valueBytes := mustMarshal(t, value)
	nonce := nextTestNonce(signer)
	sig := ed25519.Sign(priv, txAuthSignBytesV0(typ, valueBytes, nonce, signer))
	return mustMarshal(t, codec.TxEnvelope{
		Type:   typ,
		Value:  valueBytes,
		Nonce:  nonce,
		Signer: signer,
		Sig:    sig,
	})
}

func findEvent(events []abci.Event, typ string) *abci.Event {
	for i := range events {
		if events[i].Type == typ {
			return &events[i]
		}
	}
	return nil
}

func attr(ev *abci.Event, key string) string {
	if ev == nil {
		return ""
	}
	for _, a := range ev.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func newTestApp(t *testing.T) *GFApp {
	t.Helper()
	a, err := New(t.TempDir(), log.NewNopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func mustOk(t *testing.T, res *abci.ExecTxResult) *abci.ExecTxResult {
	t.Helper()
	if res.Code != 0 {
		t.Fatalf("expected ok, got code=%d log=%q", res.Code, res.Log)
	}
	return res
}

func mustFailWith(t *testing.T, res *abci.ExecTxResult, logPart string) {
	t.Helper()
	if res.Code == 0 {
		t.Fatalf("expected failure containing %q, got ok", logPart)
	}
	if !strings.Contains(res.Log, logPart) {
		t.Fatalf("expected log containing %q, got %q", logPart, res.Log)
	}
}

func mintTestTokens(t *testing.T, a *GFApp, height int64, to string, amount uint64) {
	t.Helper()
	mustOk(t, a.deliverTx(txBytes(t, "bank/mint", map[string]any{"to": to, "amount": amount}), height, 0))
}

func registerTestAccount(t *testing.T, a *GFApp, height int64, id string) {
	t.Helper()
	pub, _ := testEd25519Key(id)
	mustOk(t, a.deliverTx(txBytesSigned(t, "auth/register_account", map[string]any{
		"account": id,
		"pubKey":  []byte(pub),
	}, id), height, 0))
}

// setupTable mints and registers the creator, creates a table with the usual
// localnet params, and returns its key.
func setupTable(t *testing.T, a *GFApp, height int64, creator string) string {
	t.Helper()
	mintTestTokens(t, a, height, creator, 10_000)
	registerTestAccount(t, a, height, creator)
	res := mustOk(t, a.deliverTx(txBytesSigned(t, "poker/create_table", map[string]any{
		"creator":    creator,
		"smallBlind": 1,
		"bigBlind":   2,
		"minBuyIn":   100,
		"maxBuyIn":   1000,
	}, creator), height, 0))
	return attr(findEvent(res.Events, "TableCreated"), "tableKey")
}

func joinTable(t *testing.T, a *GFApp, height int64, tableKey, player string, buyIn uint64) {
	t.Helper()
	mustOk(t, a.deliverTx(txBytesSigned(t, "poker/join", map[string]any{
		"player":   player,
		"tableKey": tableKey,
		"buyIn":    buyIn,
	}, player), height, 0))
}

func TestCreateTable_InitializesRecord(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	key := setupTable(t, a, height, "alice")
	if key == "" {
		t.Fatalf("missing tableKey in TableCreated event")
	}
	if key != state.TableKey("alice") {
		t.Fatalf("tableKey mismatch: %q", key)
	}

	tbl := a.st.Tables[key]
	if tbl == nil {
		t.Fatalf("expected table record")
	}
	if tbl.Creator != "alice" || tbl.SmallBlind != 1 || tbl.BigBlind != 2 {
		t.Fatalf("unexpected table config: %+v", tbl)
	}
	if tbl.Pot != 0 || tbl.PlayerCount != 0 || tbl.DeckSeed != 0 {
		t.Fatalf("expected zeroed pot/playerCount/deckSeed, got %+v", tbl)
	}
	if tbl.State != state.TableWaitingForPlayers {
		t.Fatalf("expected waitingForPlayers, got %q", tbl.State)
	}
}

func TestCreateTable_DuplicateCreatorRejected(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	setupTable(t, a, height, "alice")

	res := a.deliverTx(txBytesSigned(t, "poker/create_table", map[string]any{
		"creator":    "alice",
		"smallBlind": 1,
		"bigBlind":   2,
		"minBuyIn":   100,
		"maxBuyIn":   1000,
	}, "alice"), height, 0)
	mustFailWith(t, res, "already exists")
}

func TestCreateTable_RejectsInvalidConfig(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	mintTestTokens(t, a, height, "alice", 1000)
	registerTestAccount(t, a, height, "alice")

	cases := []struct {
		name  string
		value map[string]any
		want  string
	}{
		{"zero small blind", map[string]any{"creator": "alice", "smallBlind": 0, "bigBlind": 2, "minBuyIn": 100, "maxBuyIn": 1000}, "invalid blinds"},
		{"bb below sb", map[string]any{"creator": "alice", "smallBlind": 5, "bigBlind": 2, "minBuyIn": 100, "maxBuyIn": 1000}, "invalid blinds"},
		{"zero min buy-in", map[string]any{"creator": "alice", "smallBlind": 1, "bigBlind": 2, "minBuyIn": 0, "maxBuyIn": 1000}, "invalid buy-in range"},
		{"max below min", map[string]any{"creator": "alice", "smallBlind": 1, "bigBlind": 2, "minBuyIn": 100, "maxBuyIn": 50}, "invalid buy-in range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := a.deliverTx(txBytesSigned(t, "poker/create_table", tc.value, "alice"), height, 0)
			mustFailWith(t, res, tc.want)
		})
	}
}

func TestUnknownTxType_Rejected(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	res := a.deliverTx(txBytes(t, "poker/shuffle", map[string]any{}), height, 0)
	mustFailWith(t, res, "unknown tx type")
}

func TestUnsignedCapitalTx_Rejected(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	mintTestTokens(t, a, height, "alice", 1000)
	registerTestAccount(t, a, height, "alice")

	res := a.deliverTx(txBytes(t, "poker/create_table", map[string]any{
		"creator":    "alice",
		"smallBlind": 1,
		"bigBlind":   2,
		"minBuyIn":   100,
		"maxBuyIn":   1000,
	}), height, 0)
	mustFailWith(t, res, "missing tx.nonce")
}
