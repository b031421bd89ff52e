package core

// rta_request_phase.go – RequestPhase (Authorizer): receives a payer's
// authorization request, validates it, casts this node's vote, and
// multicasts the vote to the rest of the sample.
//
// The "return Again, then Forward" callback convention is modelled
// explicitly here as a three-state machine, each state a pure function of
// (state, input, context) that returns the next directive rather than
// stashing progress behind a function name.

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestDirective tells the task runtime what to do after a RequestPhase
// transition: acknowledge and re-invoke (Again), hand a message to the
// transport and resume on its reply (Forward), or finish the task.
type RequestDirective int

const (
	DirectiveAgain RequestDirective = iota
	DirectiveForward
	DirectiveFinish
)

// RequestOutcome is the result of a single RequestPhase transition.
type RequestOutcome struct {
	Directive RequestDirective
	// Multicast is populated when Directive == DirectiveForward: the signed
	// AuthorizeRtaResponse payload to hand to the transport.
	Multicast []byte
	// Receivers is the multicast's target sample addresses.
	Receivers []string
	// Result is the ack for the caller: set by ClientRequest (DirectiveAgain)
	// and on a successful DirectiveFinish.
	Result *AckResult
	// Err is populated on failure; the task always ends on a non-nil Err.
	Err *RtaError
}

// AckResult is the minimal JSON-RPC success envelope RequestPhase returns.
type AckResult struct {
	Status string `json:"status"`
}

// RequestPhase drives one inbound AuthorizeRtaRequest through its
// ClientRequest -> ClientRequestAgain -> CryptonodeReply lifecycle.
type RequestPhase struct {
	Ctx       *RtaContext
	Transport RtaTransport
	Self      NodeKey
	SignKey   ed25519.PrivateKey
	TTL       time.Duration
}

func (p *RequestPhase) ttl() time.Duration {
	if p.TTL <= 0 {
		return DefaultRtaTTL
	}
	return p.TTL
}

// ClientRequest is the first state: acknowledge, yielding Again so the
// runtime re-invokes ClientRequestAgain once the ack has been sent. The body
// is not stored here; the caller keeps it and passes it to
// ClientRequestAgain. The request is not validated or otherwise acted on
// here — the client (payer) must not block on the full vote cycle.
func (p *RequestPhase) ClientRequest(body []byte) RequestOutcome {
	return RequestOutcome{
		Directive: DirectiveAgain,
		Result:    &AckResult{Status: "OK"},
	}
}

// ClientRequestAgain parses the persisted body, validates the transaction,
// casts this node's vote, and emits the signed multicast through an
// eight-step validation pipeline.
func (p *RequestPhase) ClientRequestAgain(body []byte, receivers []string) RequestOutcome {
	var req AuthorizeRtaRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return requestFail(ErrInvalidParams(err))
	}

	// Step 1: hex-decode tx_hex. A decode failure casts no vote; the request
	// ends here with the decisive error surfaced to the sender.
	raw, err := hex.DecodeString(req.TxHex)
	if err != nil {
		return requestFail(ErrInvalidTransaction(err))
	}

	// Step 2: parse transaction, extract tx_id.
	env, txID, err := ParseRtaTransaction(raw)
	if err != nil {
		return requestFail(ErrInvalidTransaction(err))
	}

	// Step 3: idempotence guard.
	if p.Ctx.Has(rtaTxKey(txID, "tx")) {
		return requestFail(ErrAlreadyProcessed(nil))
	}

	// Step 4: parse payment id. Malformed input must not touch shared state,
	// so this runs before any Ctx.Set call.
	pid, err := ParsePaymentId(req.PaymentId)
	if err != nil {
		return requestFail(ErrInvalidPaymentId(err))
	}

	// Step 5: record amount.
	p.Ctx.SetAmount(txID, req.Amount, p.ttl())

	// Steps 6-7: vote.
	result := VoteApproved
	if fee, ok := env.FeeFor(p.Self); !ok || fee == 0 {
		result = VoteRejected
	} else if env.Type != RtaTxTypeRTA {
		result = VoteRejected
	}

	// Step 8: persist tx + payment id, sign, emit multicast.
	p.Ctx.SetTxBytes(txID, raw, p.ttl())
	p.Ctx.SetPaymentIDFor(txID, pid, p.ttl())

	sig, err := SignVote(p.SignKey, p.Self, txID, result)
	if err != nil {
		return requestFail(ErrSignatureFailed(err))
	}

	resp := AuthorizeRtaResponse{
		TxId:      txID.Hex(),
		Result:    int(result),
		Signature: sig,
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return requestFail(ErrInternal(err))
	}

	logrus.WithFields(logrus.Fields{"tx_id": txID.Hex(), "result": result.String()}).
		Debug("rta: cast vote, emitting multicast")

	return RequestOutcome{
		Directive: DirectiveForward,
		Multicast: payload,
		Receivers: receivers,
	}
}

// CryptonodeReply is the final state: the transport has delivered the
// multicast and returned its own ack; verify it and complete the request.
func (p *RequestPhase) CryptonodeReply(ack EnvelopeAck) RequestOutcome {
	if ack.Status != "OK" {
		return requestFail(ErrInternal(nil))
	}
	return RequestOutcome{
		Directive: DirectiveFinish,
		Result:    &AckResult{Status: "OK"},
	}
}

func requestFail(err *RtaError) RequestOutcome {
	return RequestOutcome{Directive: DirectiveFinish, Err: err}
}
