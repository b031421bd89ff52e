package core

// rta_types.go – wire and domain types for the Real-Time Authorization (RTA)
// protocol: a committee of supernodes votes on a payer's transaction before
// it is forwarded to the ledger and the payment's final status is
// broadcast to interested parties.

import (
	"encoding/hex"
	"encoding/json"
	"errors"
)

// COIN is the atomic-unit denominator used to express RTA vote thresholds.
const COIN = 1_000_000_000_000

//---------------------------------------------------------------------
// Identifiers
//---------------------------------------------------------------------

// PaymentId identifies an end-to-end payment across its whole RTA lifecycle.
type PaymentId [16]byte

func (p PaymentId) Hex() string { return hex.EncodeToString(p[:]) }

func (p PaymentId) String() string { return p.Hex() }

// ParsePaymentId decodes a lowercase-hex PaymentId.
func ParsePaymentId(s string) (PaymentId, error) {
	var out PaymentId
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, errors.New("rta: payment id must be 16 bytes")
	}
	copy(out[:], b)
	return out, nil
}

// TxId is the ledger transaction hash an RTA vote round is decided over.
type TxId [32]byte

func (t TxId) Hex() string { return hex.EncodeToString(t[:]) }

func (t TxId) String() string { return t.Hex() }

// ParseTxId decodes a lowercase-hex TxId.
func ParseTxId(s string) (TxId, error) {
	var out TxId
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, errors.New("rta: tx id must be 32 bytes")
	}
	copy(out[:], b)
	return out, nil
}

// NodeKey is a supernode's Ed25519 public identity key.
type NodeKey [32]byte

func (k NodeKey) Hex() string { return hex.EncodeToString(k[:]) }

func (k NodeKey) String() string { return k.Hex() }

// ParseNodeKey decodes a lowercase-hex NodeKey.
func ParseNodeKey(s string) (NodeKey, error) {
	var out NodeKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, errors.New("rta: node key must be 32 bytes")
	}
	copy(out[:], b)
	return out, nil
}

//---------------------------------------------------------------------
// Vote result & signature
//---------------------------------------------------------------------

// VoteResult mirrors the wire-level result codes in an AuthorizeRtaResponse.
type VoteResult int

const (
	VoteApproved VoteResult = 0
	VoteRejected VoteResult = 1
	VoteInvalid  VoteResult = 3
)

func (r VoteResult) String() string {
	switch r {
	case VoteApproved:
		return "approved"
	case VoteRejected:
		return "rejected"
	case VoteInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Signature is the triple a voting supernode attaches to its vote:
// result_sig signs "<tx_id_hex>:<result_int>", tx_sig signs the raw tx id.
type Signature struct {
	Signer    NodeKey `json:"id_key"`
	ResultSig []byte  `json:"result_signature"`
	TxSig     []byte  `json:"tx_signature"`
}

// MarshalJSON renders the signature's byte fields as lowercase hex.
func (s Signature) MarshalJSON() ([]byte, error) {
	aux := struct {
		Signer    string `json:"id_key"`
		ResultSig string `json:"result_signature"`
		TxSig     string `json:"tx_signature"`
	}{
		Signer:    s.Signer.Hex(),
		ResultSig: hex.EncodeToString(s.ResultSig),
		TxSig:     hex.EncodeToString(s.TxSig),
	}
	return json.Marshal(aux)
}

// UnmarshalJSON parses the hex-encoded wire form of a Signature.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var aux struct {
		Signer    string `json:"id_key"`
		ResultSig string `json:"result_signature"`
		TxSig     string `json:"tx_signature"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	signer, err := ParseNodeKey(aux.Signer)
	if err != nil {
		return err
	}
	resultSig, err := hex.DecodeString(aux.ResultSig)
	if err != nil {
		return err
	}
	txSig, err := hex.DecodeString(aux.TxSig)
	if err != nil {
		return err
	}
	s.Signer = signer
	s.ResultSig = resultSig
	s.TxSig = txSig
	return nil
}

// RtaVote is a single supernode's verdict on a transaction.
type RtaVote struct {
	TxId      TxId
	Result    VoteResult
	Signature Signature
}

//---------------------------------------------------------------------
// VoteTally
//---------------------------------------------------------------------

// VoteTally accumulates admitted votes for one transaction. Approved and
// Rejected are keyed by signer and are disjoint: a signer's first
// admissible vote wins and occupies exactly one of the two sets.
type VoteTally struct {
	Approved map[NodeKey]Signature
	Rejected map[NodeKey]Signature
}

// NewVoteTally returns an empty tally ready for admission.
func NewVoteTally() VoteTally {
	return VoteTally{
		Approved: make(map[NodeKey]Signature),
		Rejected: make(map[NodeKey]Signature),
	}
}

// HasSigner reports whether signer already has an admitted vote, in either set.
func (t VoteTally) HasSigner(signer NodeKey) bool {
	if _, ok := t.Approved[signer]; ok {
		return true
	}
	_, ok := t.Rejected[signer]
	return ok
}

// Clone returns a deep copy so callers can mutate without racing readers.
func (t VoteTally) Clone() VoteTally {
	out := NewVoteTally()
	for k, v := range t.Approved {
		out.Approved[k] = v
	}
	for k, v := range t.Rejected {
		out.Rejected[k] = v
	}
	return out
}

//---------------------------------------------------------------------
// RtaStatus
//---------------------------------------------------------------------

// RtaStatus is the tagged terminal-state enumeration for a payment.
type RtaStatus int

const (
	RtaNone RtaStatus = iota
	RtaInProgress
	RtaSuccess
	RtaFailRejectedByPoS
	RtaFailZeroFee
	RtaFailDoubleSpend
	RtaFailTimedOut
	RtaFailTxRejected
)

// IsFinite reports whether s is a terminal status: every variant except
// None and InProgress. Finite statuses are sticky and may not be demoted.
func (s RtaStatus) IsFinite() bool {
	return s != RtaNone && s != RtaInProgress
}

func (s RtaStatus) String() string {
	switch s {
	case RtaNone:
		return "none"
	case RtaInProgress:
		return "in_progress"
	case RtaSuccess:
		return "success"
	case RtaFailRejectedByPoS:
		return "fail_rejected_by_pos"
	case RtaFailZeroFee:
		return "fail_zero_fee"
	case RtaFailDoubleSpend:
		return "fail_double_spend"
	case RtaFailTimedOut:
		return "fail_timed_out"
	case RtaFailTxRejected:
		return "fail_tx_rejected"
	default:
		return "unknown"
	}
}

//---------------------------------------------------------------------
// Wire payloads
//---------------------------------------------------------------------

// AuthorizeRtaRequest is the payer's request for committee authorization.
type AuthorizeRtaRequest struct {
	PaymentId string `json:"payment_id"`
	Amount    uint64 `json:"amount"`
	TxHex     string `json:"tx_hex"`
}

// AuthorizeRtaResponse is a supernode's multicast vote on a transaction.
type AuthorizeRtaResponse struct {
	TxId      string    `json:"tx_id"`
	Result    int       `json:"result"`
	Signature Signature `json:"signature"`
}

// StatusBroadcastBody is the final-status payload fanned out to the sample
// and interested external observers.
type StatusBroadcastBody struct {
	PaymentId string `json:"payment_id"`
	Status    int    `json:"status"`
	Signature string `json:"signature"`
}

// SendRawTransactionRequest is the outbound call to the ledger.
type SendRawTransactionRequest struct {
	TxAsHex   string `json:"tx_as_hex"`
	DoNotRelay bool  `json:"do_not_relay"`
}

// SendRawTransactionReply is the ledger's response to a submission.
type SendRawTransactionReply struct {
	Status     string `json:"status"`
	DoubleSpend bool  `json:"double_spend"`
	Reason     string `json:"reason,omitempty"`
}

// Envelope is the uniform transport wrapper for multicast/broadcast calls.
type Envelope struct {
	SenderAddress     string   `json:"sender_address"`
	ReceiverAddresses []string `json:"receiver_addresses"`
	Data              string   `json:"data"` // base64-encoded JSON payload
	CallbackURI       string   `json:"callback_uri,omitempty"`
}

// EnvelopeAck is the transport's acknowledgement of a multicast/broadcast.
type EnvelopeAck struct {
	Status string `json:"status"`
}
