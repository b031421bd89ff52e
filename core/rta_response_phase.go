package core

// rta_response_phase.go – ResponsePhase (Aggregator): accumulates peer
// votes per transaction, detects quorum, and drives the payment to a
// terminal status. This is the largest of the four RTA
// components: the vote admission rules, the tiered quorum thresholds, and
// the ledger-reply / stale-status handling all live here.

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// ResponseDirective mirrors RequestDirective for the response-side state
// machine: Forward to hand a message to the transport (sendrawtransaction
// or a status broadcast) and resume on its reply, or Finish to end the
// task. Each inbound vote is its own task, so a vote that leaves quorum
// unreached finishes with an OK ack; no ResponsePhase transition returns
// ResponseAck.
type ResponseDirective int

const (
	ResponseAck ResponseDirective = iota
	ResponseForward
	ResponseFinish
)

// ResponseOutcome is the result of a single ResponsePhase transition.
type ResponseOutcome struct {
	Directive ResponseDirective
	// LedgerTxHex is populated when the outcome is a sendrawtransaction
	// submission (Directive == ResponseForward, next state TransactionPushReply).
	LedgerTxHex string
	// BroadcastPayload is populated when the outcome is a status broadcast
	// (Directive == ResponseForward, next state StatusBroadcastReply).
	BroadcastPayload []byte
	// PaymentId accompanies a TransactionPushReply/StatusBroadcastReply
	// transition so the next state knows which payment it serves.
	PaymentId PaymentId
	TxId      TxId
	Result    *AckResult
	Err       *RtaError
}

func responseFail(err *RtaError) ResponseOutcome {
	return ResponseOutcome{Directive: ResponseFinish, Err: err}
}

func responseOK() ResponseOutcome {
	return ResponseOutcome{Directive: ResponseFinish, Result: &AckResult{Status: "OK"}}
}

// Quorum thresholds. VotesToReject is a deliberately low test-mode
// constant; production sizing is a deployment concern and is exposed here
// purely as configuration.
const (
	DefaultVotesToReject                   = 1
	DefaultVotesToApproveLow               = 2
	DefaultVotesToApproveHigh              = 4
	DefaultApproveHighThresholdAtomicUnits = 100 * COIN
)

// QuorumConfig holds the deployment-supplied thresholds.
type QuorumConfig struct {
	VotesToReject                   int
	VotesToApproveLow               int
	VotesToApproveHigh              int
	ApproveHighThresholdAtomicUnits uint64
}

// DefaultQuorumConfig returns a conservative set of example thresholds.
func DefaultQuorumConfig() QuorumConfig {
	return QuorumConfig{
		VotesToReject:                   DefaultVotesToReject,
		VotesToApproveLow:               DefaultVotesToApproveLow,
		VotesToApproveHigh:              DefaultVotesToApproveHigh,
		ApproveHighThresholdAtomicUnits: DefaultApproveHighThresholdAtomicUnits,
	}
}

// votesToApprove returns the approval threshold tiered by amount.
func (q QuorumConfig) votesToApprove(amount uint64) int {
	if amount <= q.ApproveHighThresholdAtomicUnits {
		return q.VotesToApproveLow
	}
	return q.VotesToApproveHigh
}

// ResponsePhase drives peer votes, the ledger reply, and the broadcast ack
// through RtaAuthReply -> TransactionPushReply -> StatusBroadcastReply.
type ResponsePhase struct {
	Ctx     *RtaContext
	Quorum  QuorumConfig
	Self    NodeKey
	SignKey ed25519.PrivateKey
	TTL     time.Duration
}

// RtaAuthReply admits an incoming peer vote and evaluates the quorum
// outcome.
func (r *ResponsePhase) RtaAuthReply(body []byte) ResponseOutcome {
	var resp AuthorizeRtaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return responseFail(ErrInvalidParams(err))
	}
	if resp.Result != int(VoteApproved) && resp.Result != int(VoteRejected) {
		return responseFail(ErrInvalidParams(nil))
	}

	txID, err := ParseTxId(resp.TxId)
	if err != nil {
		return responseFail(ErrInvalidParams(err))
	}
	result := VoteResult(resp.Result)

	ok, err := VerifyVote(txID, result, resp.Signature)
	if err != nil || !ok {
		return responseFail(ErrSignatureFailed(err))
	}

	signer := resp.Signature.Signer
	var duplicate bool
	tally := r.Ctx.WithTallyCAS(txID, r.ttl(), func(current VoteTally, existed bool) (VoteTally, bool) {
		if !existed {
			current = NewVoteTally()
		}
		if current.HasSigner(signer) {
			duplicate = true
			return current, false
		}
		next := current.Clone()
		switch result {
		case VoteApproved:
			next.Approved[signer] = resp.Signature
		case VoteRejected:
			next.Rejected[signer] = resp.Signature
		}
		return next, true
	})
	if duplicate {
		return responseFail(ErrDuplicateVote(nil))
	}
	observeVoteAdmitted(result)

	amount, hasAmount := r.Ctx.Amount(txID)
	if !hasAmount {
		return responseFail(ErrInternal(nil))
	}
	pid, hasPid := r.Ctx.PaymentIDFor(txID)
	if !hasPid {
		return responseFail(ErrInternal(nil))
	}

	// A payment that already reached a finite status keeps admitting votes
	// into the tally, but no further vote may re-trigger a quorum
	// transition: late approvals must not reopen a decided outcome.
	if r.Ctx.Status(pid).IsFinite() {
		return responseOK()
	}

	// Outcome evaluation, in order: reject quorum first, then approve quorum.
	if len(tally.Rejected) >= r.Quorum.VotesToReject {
		observeQuorumTransition("reject")
		r.Ctx.SetStatus(pid, RtaFailRejectedByPoS, r.ttl())
		payload, err := r.signedStatusPayload(pid, RtaFailRejectedByPoS)
		if err != nil {
			return responseFail(ErrInternal(err))
		}
		return ResponseOutcome{
			Directive:        ResponseForward,
			BroadcastPayload: payload,
			PaymentId:        pid,
			TxId:             txID,
		}
	}

	if len(tally.Approved) >= r.Quorum.votesToApprove(amount) {
		observeQuorumTransition("approve")
		txBytes, ok := r.Ctx.TxBytes(txID)
		if !ok {
			return responseFail(ErrInternal(nil))
		}
		signed := attachApprovedSignatures(txBytes, signaturesOf(tally.Approved))
		return ResponseOutcome{
			Directive:   ResponseForward,
			LedgerTxHex: hex.EncodeToString(signed),
			PaymentId:   pid,
			TxId:        txID,
		}
	}

	logrus.WithField("tx_id", txID.Hex()).Debug("rta: vote admitted, quorum not yet reached")
	return responseOK()
}

// TransactionPushReply handles the ledger's acknowledgement of the
// sendrawtransaction call. txID is carried through unchanged into the
// returned outcome so a caller chaining this onto the RtaAuthReply outcome
// (which supplies it) doesn't lose it on reassignment.
func (r *ResponsePhase) TransactionPushReply(pid PaymentId, txID TxId, reply SendRawTransactionReply) ResponseOutcome {
	if r.Ctx.Status(pid).IsFinite() {
		// Stale reply: a finite status already won the race. Ack only.
		return responseOK()
	}

	if reply.DoubleSpend {
		// Preserved as observed: log and ack without changing
		// status; the double-spend broadcast path is reserved for future use.
		logrus.WithField("payment_id", pid.Hex()).Warn("rta: double_spend reply observed, status left unchanged")
		return responseOK()
	}

	status := RtaFailTxRejected
	if reply.Status == "OK" {
		status = RtaSuccess
	}
	r.Ctx.SetStatus(pid, status, r.ttl())
	payload, err := r.signedStatusPayload(pid, status)
	if err != nil {
		return responseFail(ErrInternal(err))
	}
	return ResponseOutcome{
		Directive:        ResponseForward,
		BroadcastPayload: payload,
		PaymentId:        pid,
		TxId:             txID,
	}
}

// StatusBroadcastReply handles the broadcast's acknowledgement; the
// transport ack was already validated by StatusBroadcaster, so this simply
// completes the task.
func (r *ResponsePhase) StatusBroadcastReply() ResponseOutcome {
	return responseOK()
}

func (r *ResponsePhase) ttl() time.Duration {
	if r.TTL <= 0 {
		return DefaultRtaTTL
	}
	return r.TTL
}

// signedStatusPayload renders and signs the status broadcast body for pid,
// using this node's own identity.
func (r *ResponsePhase) signedStatusPayload(pid PaymentId, status RtaStatus) ([]byte, error) {
	sig, err := SignStatusBroadcast(r.SignKey, pid, status)
	if err != nil {
		return nil, err
	}
	body := StatusBroadcastBody{
		PaymentId: pid.Hex(),
		Status:    int(status),
		Signature: hex.EncodeToString(sig),
	}
	return json.Marshal(body)
}

// attachApprovedSignatures plays the role of a putRtaSignaturesToTx step:
// the approved committee
// signatures are appended as a canonical length-prefixed trailer ahead of
// ledger submission. Each entry is signer(32) || len(result_sig) uint16 ||
// result_sig || len(tx_sig) uint16 || tx_sig.
func attachApprovedSignatures(tx []byte, sigs []Signature) []byte {
	var buf bytes.Buffer
	buf.Write(tx)

	var count [2]byte
	binary.BigEndian.PutUint16(count[:], uint16(len(sigs)))
	buf.Write(count[:])

	for _, sig := range sigs {
		buf.Write(sig.Signer[:])
		writeLenPrefixed(&buf, sig.ResultSig)
		writeLenPrefixed(&buf, sig.TxSig)
	}
	return buf.Bytes()
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(b)))
	buf.Write(l[:])
	buf.Write(b)
}

func signaturesOf(m map[NodeKey]Signature) []Signature {
	out := make([]Signature, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}
