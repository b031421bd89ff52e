package server

// handlers.go – JSON-RPC 2.0 façade over the core RTA state machines. Every
// *core.RtaError is translated to the wire error envelope in exactly one
// place (writeRPCError); every handler recovers its own panics so a bad
// payload cannot take the process down.

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	core "synnergy-network/core"
)

var (
	rtaCtx          *core.RtaContext
	requestPhase    *core.RequestPhase
	responsePhase   *core.ResponsePhase
	broadcaster     *core.StatusBroadcaster
	ledgerTransport core.RtaTransport
	samplePeers     []string
)

// Init wires the handlers to a running committee member's state. Called
// once from main before NewRouter starts serving.
func Init(ctx *core.RtaContext, rp *core.RequestPhase, resp *core.ResponsePhase, b *core.StatusBroadcaster, transport core.RtaTransport, peers []string) {
	rtaCtx = ctx
	requestPhase = rp
	responsePhase = resp
	broadcaster = b
	ledgerTransport = transport
	samplePeers = peers
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// writeRPCError is the single point where an *core.RtaError becomes the
// wire-level JSON-RPC error envelope.
func writeRPCError(w http.ResponseWriter, id json.RawMessage, err *core.RtaError) {
	log.WithFields(log.Fields{"code": err.Code, "message": err.Message}).Warn("rtaserver: request failed")
	_ = json.NewEncoder(w).Encode(rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: err.Code, Message: err.Message},
	})
}

func writeRPCResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func recoverPanic(w http.ResponseWriter, id json.RawMessage) {
	if rec := recover(); rec != nil {
		log.WithField("panic", rec).Error("rtaserver: handler panic")
		writeRPCError(w, id, core.ErrInternal(nil))
	}
}

func decodeRPC(w http.ResponseWriter, r *http.Request) (rpcRequest, bool) {
	var req rpcRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeRPCError(w, nil, core.ErrInvalidParams(err))
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, nil, core.ErrInvalidParams(err))
		return req, false
	}
	return req, true
}

// AuthorizeRtaTxRequest handles a payer's authorization request: it acks
// immediately and drives the rest of the validate-and-vote pipeline in the
// background, so the caller never blocks on the full vote cycle.
func AuthorizeRtaTxRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRPC(w, r)
	if !ok {
		return
	}
	defer recoverPanic(w, req.ID)

	out := requestPhase.ClientRequest(req.Params)
	if out.Err != nil {
		writeRPCError(w, req.ID, out.Err)
		return
	}
	writeRPCResult(w, req.ID, out.Result)

	params := append([]byte(nil), req.Params...)
	go continueClientRequest(params)
}

func continueClientRequest(params []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("rtaserver: background request pipeline panic")
		}
	}()

	out := requestPhase.ClientRequestAgain(params, samplePeers)
	if out.Err != nil {
		log.WithField("code", out.Err.Code).Warn("rtaserver: request validation failed")
		return
	}
	if out.Directive != core.DirectiveForward {
		return
	}
	ack, err := requestPhase.Transport.Multicast(context.Background(), out.Receivers, out.Multicast, "")
	if err != nil {
		log.WithError(err).Error("rtaserver: multicast failed")
		return
	}
	if fin := requestPhase.CryptonodeReply(ack); fin.Err != nil {
		log.WithField("code", fin.Err.Code).Warn("rtaserver: multicast ack rejected")
	}
}

// AuthorizeRtaTxResponse handles a peer supernode's vote: admit it into the
// tally, ack immediately, and drive quorum's ledger submission and status
// broadcast in the background once a threshold is crossed.
func AuthorizeRtaTxResponse(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRPC(w, r)
	if !ok {
		return
	}
	defer recoverPanic(w, req.ID)

	out := responsePhase.RtaAuthReply(req.Params)
	if out.Err != nil {
		writeRPCError(w, req.ID, out.Err)
		return
	}
	result := out.Result
	if result == nil {
		result = &core.AckResult{Status: "OK"}
	}
	writeRPCResult(w, req.ID, result)

	go continueQuorumOutcome(out)
}

func continueQuorumOutcome(out core.ResponseOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("rtaserver: background quorum pipeline panic")
		}
	}()

	if out.Directive != core.ResponseForward {
		return
	}

	if out.LedgerTxHex != "" {
		reply, err := ledgerTransport.SendRawTransaction(context.Background(), out.LedgerTxHex)
		if err != nil {
			log.WithError(err).Error("rtaserver: sendrawtransaction failed")
			return
		}
		out = responsePhase.TransactionPushReply(out.PaymentId, out.TxId, reply)
	}
	publishStatus(out)
}

func publishStatus(out core.ResponseOutcome) {
	if out.Err != nil {
		log.WithField("code", out.Err.Code).Warn("rtaserver: ledger reply rejected")
		return
	}
	if out.BroadcastPayload == nil {
		return
	}
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(out.BroadcastPayload, &body); err != nil {
		log.WithError(err).Error("rtaserver: malformed status broadcast payload")
		return
	}

	ack, rpcErr := broadcaster.Publish(context.Background(), core.RtaStatus(body.Status), samplePeers, out.BroadcastPayload, "")
	if rpcErr != nil {
		log.WithField("code", rpcErr.Code).Error("rtaserver: status broadcast failed")
		return
	}
	_ = ack
	responsePhase.StatusBroadcastReply()
	broadcaster.Cleanup(rtaCtx, out.PaymentId, out.TxId)
}
