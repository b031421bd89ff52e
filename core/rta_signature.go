package core

// rta_signature.go – RTA-specific signing helpers layered on the package's
// existing Ed25519 facility (security.go). The cryptographic primitives
// themselves are reused as-is; this file only encodes
// the two canonical messages RTA signs and verifies.

import (
	"crypto/ed25519"
	"fmt"
)

// resultMessage builds the canonical "<tx_id_hex>:<result_int>" message a
// vote's result_sig signs.
func resultMessage(id TxId, result VoteResult) []byte {
	return []byte(fmt.Sprintf("%s:%d", id.Hex(), int(result)))
}

// SignVote produces the {result_sig, tx_sig} pair for a vote cast by this
// node over tx id with the given result.
func SignVote(priv ed25519.PrivateKey, signer NodeKey, id TxId, result VoteResult) (Signature, error) {
	resultSig, err := Sign(AlgoEd25519, priv, resultMessage(id, result))
	if err != nil {
		return Signature{}, fmt.Errorf("sign result: %w", err)
	}
	txSig, err := Sign(AlgoEd25519, priv, id[:])
	if err != nil {
		return Signature{}, fmt.Errorf("sign tx: %w", err)
	}
	return Signature{Signer: signer, ResultSig: resultSig, TxSig: txSig}, nil
}

// VerifyVote checks both halves of sig against id and result under the
// signature's claimed signer. Both must verify for the vote to count
func VerifyVote(id TxId, result VoteResult, sig Signature) (bool, error) {
	pub := ed25519.PublicKey(sig.Signer[:])
	okResult, err := Verify(AlgoEd25519, pub, resultMessage(id, result), sig.ResultSig)
	if err != nil {
		return false, fmt.Errorf("verify result sig: %w", err)
	}
	if !okResult {
		return false, nil
	}
	okTx, err := Verify(AlgoEd25519, pub, id[:], sig.TxSig)
	if err != nil {
		return false, fmt.Errorf("verify tx sig: %w", err)
	}
	return okTx, nil
}

// SignStatusBroadcast signs the payment_id:status pair for the final-status
// broadcast message.
func SignStatusBroadcast(priv ed25519.PrivateKey, id PaymentId, status RtaStatus) ([]byte, error) {
	msg := []byte(fmt.Sprintf("%s:%d", id.Hex(), int(status)))
	return Sign(AlgoEd25519, priv, msg)
}

// VerifyStatusBroadcast checks a status broadcast's signature under signer.
func VerifyStatusBroadcast(signer NodeKey, id PaymentId, status RtaStatus, sig []byte) (bool, error) {
	msg := []byte(fmt.Sprintf("%s:%d", id.Hex(), int(status)))
	return Verify(AlgoEd25519, ed25519.PublicKey(signer[:]), msg, sig)
}
