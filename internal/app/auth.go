package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	errorsmod "cosmossdk.io/errors"

	"goldenflop/apps/chain/internal/codec"
	"goldenflop/apps/chain/internal/state"
)

const txAuthDomainV0 = "goldenflop/tx/v0"

func txAuthSignBytesV0(typ string, value []byte, nonce string, signer string) []byte {
	// signBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomainV0)+1+len(typ)+1+len(nonce)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomainV0)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return fmt.Errorf("missing tx.nonce")
	}
	if env.Signer == "" {
		return fmt.Errorf("missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return fmt.Errorf("missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

func requireRegisterAccountAuth(env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return fmt.Errorf("missing account")
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	pub := ed25519.PublicKey(msg.PubKey)
	msgBytes := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(pub, msgBytes, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// requireAccountAuth asserts that the envelope was signed by the registered
// key of account. Capital-affecting operations (create/join/leave, session
// issuance/revocation) always go through here; the short-lived session path
// never does.
func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if st == nil {
		return fmt.Errorf("state is nil")
	}
	if account == "" {
		return fmt.Errorf("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("account %q missing pubKey (auth/register_account required)", account)
	}
	msg := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// requireSessionAuth asserts that the envelope was signed by the session's
// ephemeral key. The signer id for session-signed txs is the hex encoding of
// that pubkey.
func requireSessionAuth(env codec.TxEnvelope, sess *state.Session) error {
	if sess == nil {
		return fmt.Errorf("session is nil")
	}
	if len(sess.EphemeralSigner) != ed25519.PublicKeySize {
		return fmt.Errorf("session has invalid ephemeral signer key")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != hex.EncodeToString(sess.EphemeralSigner) {
		return errorsmod.Wrapf(ErrInvalidSigner, "signer=%q", env.Signer)
	}
	msg := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(sess.EphemeralSigner), msg, env.Sig) {
		return errorsmod.Wrap(ErrInvalidSigner, "invalid signature")
	}
	return nil
}

// checkAndBumpNonce enforces strictly increasing numeric nonces per signer.
func checkAndBumpNonce(st *state.State, signer string, nonce string) error {
	n, err := strconv.ParseUint(nonce, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tx.nonce: %q", nonce)
	}
	if last := st.NonceMax[signer]; n <= last {
		return fmt.Errorf("replayed tx.nonce: got %d last %d", n, last)
	}
	st.NonceMax[signer] = n
	return nil
}
