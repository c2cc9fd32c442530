package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"goldenflop/apps/chain/internal/codec"
	"goldenflop/apps/chain/internal/state"
)

const (
	AppVersion uint64 = 1
)

type GFApp struct {
	*abci.BaseApplication

	home   string
	logger log.Logger

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(home string, logger log.Logger) (*GFApp, error) {
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome)
	if err != nil {
		return nil, err
	}
	a := &GFApp{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		logger:          logger.With("module", "goldenflop"),
		st:              st,
		lastHash:        st.AppHash(),
	}
	a.logger.Info("state loaded", "height", st.Height, "tables", len(st.Tables), "sessions", len(st.Sessions))
	return a, nil
}

func (a *GFApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "goldenflop (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *GFApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	_, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	// Only structural validation here; auth needs committed state.
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *GFApp) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	return &abci.InitChainResponse{}, nil
}

func (a *GFApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	nowUnix := req.Time.Unix()

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height, nowUnix)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *GFApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	// Persist after each block for devnet durability.
	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		// CometBFT expects Commit to not crash; return error so node halts loudly.
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

func (a *GFApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Paths:
	// - /account/<addr>
	// - /table/<key>
	// - /tables
	// - /session/<key>
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/tables":
		keys := make([]string, 0, len(a.st.Tables))
		for k := range a.st.Tables {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b, _ := json.Marshal(keys)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/account/"):
		addr := strings.TrimPrefix(path, "/account/")
		bal := a.st.Balance(addr)
		b, _ := json.Marshal(map[string]any{"addr": addr, "balance": bal})
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/table/"):
		key := strings.TrimPrefix(path, "/table/")
		t, ok := a.st.Tables[key]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "table not found", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(t)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/session/"):
		key := strings.TrimPrefix(path, "/session/")
		s, ok := a.st.Sessions[key]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "session not found", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(s)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	default:
		return &abci.QueryResponse{Code: 1, Log: "unknown query path", Height: a.st.Height}, nil
	}
}

// deliverTx executes one tx against a staged copy of state. The copy is
// adopted only on success, so a failing precondition leaves no partial
// effects.
func (a *GFApp) deliverTx(txBytes []byte, height int64, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	staged, err := a.st.Clone()
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	res, err := a.execTx(staged, env, nowUnix)
	if err != nil {
		space, code, _ := errorsmod.ABCIInfo(err, false)
		a.logger.Debug("tx rejected", "height", height, "type", env.Type, "err", err)
		return &abci.ExecTxResult{Code: code, Codespace: space, Log: err.Error()}
	}

	a.st = staged
	return res
}

func (a *GFApp) execTx(st *state.State, env codec.TxEnvelope, nowUnix int64) (*abci.ExecTxResult, error) {
	switch env.Type {
	case "bank/mint":
		// Localnet faucet; unsigned.
		var msg codec.BankMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad bank/mint value")
		}
		if msg.To == "" || msg.Amount == 0 {
			return nil, fmt.Errorf("missing to/amount")
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, err
		}
		return okEvent("BankMinted", map[string]string{
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "bank/send":
		var msg codec.BankSendTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad bank/send value")
		}
		if msg.From == "" || msg.To == "" || msg.Amount == 0 {
			return nil, fmt.Errorf("missing from/to/amount")
		}
		if err := requireAccountAuth(st, env, msg.From); err != nil {
			return nil, err
		}
		if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
			return nil, err
		}
		if err := st.Debit(msg.From, msg.Amount); err != nil {
			return nil, err
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, err
		}
		return okEvent("BankSent", map[string]string{
			"from":   msg.From,
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad auth/register_account value")
		}
		if err := requireRegisterAccountAuth(env, msg); err != nil {
			return nil, err
		}
		if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
			return nil, err
		}
		if existing := st.AccountKeys[msg.Account]; len(existing) != 0 && !bytes.Equal(existing, msg.PubKey) {
			return nil, fmt.Errorf("account pubKey mismatch for %q", msg.Account)
		}
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		return okEvent("AccountRegistered", map[string]string{
			"account": msg.Account,
		}), nil

	case "poker/create_table":
		var msg codec.PokerCreateTableTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad poker/create_table value")
		}
		if err := requireAccountAuth(st, env, msg.Creator); err != nil {
			return nil, err
		}
		if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
			return nil, err
		}
		return pokerCreateTable(st, msg)

	case "poker/join":
		var msg codec.PokerJoinTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad poker/join value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
			return nil, err
		}
		return pokerJoin(st, msg)

	case "poker/leave":
		var msg codec.PokerLeaveTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad poker/leave value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
			return nil, err
		}
		return pokerLeave(st, msg)

	case "session/create":
		var msg codec.SessionCreateTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad session/create value")
		}
		if err := requireAccountAuth(st, env, msg.Authority); err != nil {
			return nil, err
		}
		if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
			return nil, err
		}
		return sessionCreate(st, msg, nowUnix)

	case "session/revoke":
		var msg codec.SessionRevokeTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad session/revoke value")
		}
		if err := requireAccountAuth(st, env, msg.Authority); err != nil {
			return nil, err
		}
		if err := checkAndBumpNonce(st, env.Signer, env.Nonce); err != nil {
			return nil, err
		}
		return sessionRevoke(st, msg)

	case "poker/action":
		var msg codec.PokerActionTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad poker/action value")
		}
		return pokerAction(st, env, msg, nowUnix)

	default:
		return nil, fmt.Errorf("unknown tx type: %s", env.Type)
	}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{ev},
	}
}
