package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MaxPlayers is the fixed seat capacity of every table.
const MaxPlayers = 9

type State struct {
	Height int64 `json:"height"`

	Accounts    map[string]uint64 `json:"accounts"`
	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce (u64), for replay protection

	// Tables are keyed by TableKey(creator); Sessions by SessionKey(authority,
	// tableKey). The derived key is the record's identity: a given key maps to
	// at most one live record and duplicate creation is rejected.
	Tables   map[string]*Table   `json:"tables"`
	Sessions map[string]*Session `json:"sessions,omitempty"`
}

func NewState() *State {
	return &State{
		Height:      0,
		Accounts:    map[string]uint64{},
		AccountKeys: map[string][]byte{},
		NonceMax:    map[string]uint64{},
		Tables:      map[string]*Table{},
		Sessions:    map[string]*Session{},
	}
}

func Load(home string) (*State, error) {
	path := filepath.Join(home, "state.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	normalize(&st)
	return &st, nil
}

func (s *State) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("mkdir home: %w", err)
	}
	path := filepath.Join(home, "state.json")
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	normalize(&out)
	return &out, nil
}

func normalize(s *State) {
	if s.Accounts == nil {
		s.Accounts = map[string]uint64{}
	}
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Tables == nil {
		s.Tables = map[string]*Table{}
	}
	if s.Sessions == nil {
		s.Sessions = map[string]*Session{}
	}
}

func (s *State) AppHash() []byte {
	// Deterministic JSON hash: marshal with stable key ordering by serializing
	// a normalized view.
	//
	// Note: encoding/json does NOT guarantee map key order, so we manually
	// normalize maps into slices.
	type accountKV struct {
		Addr    string `json:"addr"`
		Balance uint64 `json:"balance"`
	}
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type tableKV struct {
		Key   string `json:"key"`
		Table *Table `json:"table"`
	}
	type sessionKV struct {
		Key     string   `json:"key"`
		Session *Session `json:"session"`
	}

	accounts := make([]accountKV, 0, len(s.Accounts))
	for k, v := range s.Accounts {
		accounts = append(accounts, accountKV{Addr: k, Balance: v})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Addr < accounts[j].Addr })

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	tables := make([]tableKV, 0, len(s.Tables))
	for k, t := range s.Tables {
		tables = append(tables, tableKV{Key: k, Table: t})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Key < tables[j].Key })

	sessions := make([]sessionKV, 0, len(s.Sessions))
	for k, sess := range s.Sessions {
		sessions = append(sessions, sessionKV{Key: k, Session: sess})
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Key < sessions[j].Key })

	normalized := struct {
		Height      int64          `json:"height"`
		Accounts    []accountKV    `json:"accounts"`
		AccountKeys []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax    []nonceKV      `json:"nonceMax,omitempty"`
		Tables      []tableKV      `json:"tables"`
		Sessions    []sessionKV    `json:"sessions,omitempty"`
	}{
		Height:      s.Height,
		Accounts:    accounts,
		AccountKeys: accountKeys,
		NonceMax:    nonces,
		Tables:      tables,
		Sessions:    sessions,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Bank ----

func (s *State) Balance(addr string) uint64 {
	return s.Accounts[addr]
}

func (s *State) Credit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("balance overflow: have=%d add=%d", bal, amount)
	}
	s.Accounts[addr] = bal + amount
	return nil
}

func (s *State) Debit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal < amount {
		return fmt.Errorf("insufficient funds: have=%d need=%d", bal, amount)
	}
	s.Accounts[addr] = bal - amount
	return nil
}

// ---- Tables ----

type TableState string

const (
	TableWaitingForPlayers TableState = "waitingForPlayers"
	TableBetweenHands      TableState = "betweenHands"
	TableInHand            TableState = "inHand"
)

// PlayerSlot is one occupied seat. SessionKey is a denormalized copy of the
// session's ephemeral signer pubkey; session/revoke clears it so the seat
// never carries a dangling credential.
type PlayerSlot struct {
	Authority  string `json:"authority"`
	SessionKey []byte `json:"sessionKey,omitempty"` // 32-byte ed25519 pubkey (base64 in JSON)
	Chips      uint64 `json:"chips"`
	InHand     bool   `json:"inHand"`
}

type Table struct {
	Key     string `json:"key"`
	Creator string `json:"creator"`

	SmallBlind uint64 `json:"smallBlind"`
	BigBlind   uint64 `json:"bigBlind"`
	MinBuyIn   uint64 `json:"minBuyIn"`
	MaxBuyIn   uint64 `json:"maxBuyIn"`

	Pot   uint64     `json:"pot"`
	State TableState `json:"state"`

	// DeckSeed is a placeholder for a future randomness oracle; nothing
	// populates it yet, so consumers always observe 0.
	DeckSeed uint64 `json:"deckSeed"`

	PlayerCount uint8                   `json:"playerCount"`
	Players     [MaxPlayers]*PlayerSlot `json:"players"`
}

// FindPlayer returns the seat index holding authority, scanning all slots in
// order.
func (t *Table) FindPlayer(authority string) (int, bool) {
	for i, slot := range t.Players {
		if slot != nil && slot.Authority == authority {
			return i, true
		}
	}
	return 0, false
}

// CompactPlayers left-packs occupied slots, preserving their relative order,
// clears the tail, and recounts. Occupied indices form the contiguous prefix
// [0, PlayerCount) afterwards.
func (t *Table) CompactPlayers() {
	write := 0
	for read := 0; read < MaxPlayers; read++ {
		if t.Players[read] == nil {
			continue
		}
		if write != read {
			t.Players[write] = t.Players[read]
			t.Players[read] = nil
		}
		write++
	}
	for i := write; i < MaxPlayers; i++ {
		t.Players[i] = nil
	}
	t.PlayerCount = uint8(write)
}

// ---- Sessions ----

// Session delegates gameplay authorization for one (authority, table) pair to
// an ephemeral signing key until Expiry.
type Session struct {
	Key             string `json:"key"`
	Authority       string `json:"authority"`
	EphemeralSigner []byte `json:"ephemeralSigner"` // 32-byte ed25519 pubkey (base64 in JSON)
	Table           string `json:"table"`           // table key
	CreatedAt       int64  `json:"createdAt"`
	Expiry          int64  `json:"expiry"`
}
