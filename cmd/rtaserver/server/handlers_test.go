package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	core "synnergy-network/core"
)

type stubTransport struct {
	sentTx string
}

func (s *stubTransport) Multicast(ctx context.Context, receivers []string, payload []byte, callbackURI string) (core.EnvelopeAck, error) {
	return core.EnvelopeAck{Status: "OK"}, nil
}

func (s *stubTransport) Broadcast(ctx context.Context, receivers []string, payload []byte, callbackURI string) (core.EnvelopeAck, error) {
	return core.EnvelopeAck{Status: "OK"}, nil
}

func (s *stubTransport) SendRawTransaction(ctx context.Context, txHex string) (core.SendRawTransactionReply, error) {
	s.sentTx = txHex
	return core.SendRawTransactionReply{Status: "OK"}, nil
}

func setupTestServer(t *testing.T) (ed25519.PrivateKey, core.NodeKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var self core.NodeKey
	copy(self[:], pub)

	ctx := core.NewRtaContext(time.Second, 0)
	ctx.SetSupernode(self)
	transport := &stubTransport{}

	rp := &core.RequestPhase{Ctx: ctx, Transport: transport, Self: self, SignKey: priv, TTL: time.Second}
	resp := &core.ResponsePhase{Ctx: ctx, Quorum: core.DefaultQuorumConfig(), Self: self, SignKey: priv, TTL: time.Second}
	bc := &core.StatusBroadcaster{Transport: transport}

	Init(ctx, rp, resp, bc, transport, []string{"http://peer1"})
	return priv, self
}

func rpcEnvelope(params interface{}) []byte {
	p, _ := json.Marshal(params)
	req := rpcRequest{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "authorize", Params: p}
	body, _ := json.Marshal(req)
	return body
}

func TestAuthorizeRtaTxRequestAcksImmediately(t *testing.T) {
	_, self := setupTestServer(t)
	env, _ := json.Marshal(core.RtaTxEnvelope{Type: core.RtaTxTypeRTA, Outputs: []core.RtaTxOutput{{To: self, Amount: 10}}})
	params := core.AuthorizeRtaRequest{
		PaymentId: core.PaymentId{1}.Hex(),
		Amount:    1000,
		TxHex:     hex.EncodeToString(env),
	}
	body := rpcEnvelope(params)

	r := httptest.NewRequest(http.MethodPost, "/cryptonode/authorize_rta_tx_request", bytes.NewReader(body))
	w := httptest.NewRecorder()
	AuthorizeRtaTxRequest(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp rpcResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
}

func TestAuthorizeRtaTxRequestRejectsMalformedJSON(t *testing.T) {
	setupTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/cryptonode/authorize_rta_tx_request", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	AuthorizeRtaTxRequest(w, r)

	var resp rpcResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != core.ErrCodeInvalidParams {
		t.Fatalf("expected invalid params error, got %+v", resp.Error)
	}
}

func TestAuthorizeRtaTxResponseAdmitsVote(t *testing.T) {
	_, self := setupTestServer(t)
	txID := core.TxId{2}
	pid := core.PaymentId{2}
	rtaCtx.SetAmount(txID, 1*1_000_000_000_000, time.Second)
	rtaCtx.SetPaymentIDFor(txID, pid, time.Second)
	rtaCtx.SetTxBytes(txID, []byte("raw"), time.Second)

	pub2, priv2, _ := ed25519.GenerateKey(nil)
	var voter core.NodeKey
	copy(voter[:], pub2)
	if voter == self {
		t.Fatal("test fixture collision")
	}
	sig, err := core.SignVote(priv2, voter, txID, core.VoteApproved)
	if err != nil {
		t.Fatalf("SignVote: %v", err)
	}
	params := core.AuthorizeRtaResponse{TxId: txID.Hex(), Result: int(core.VoteApproved), Signature: sig}
	body := rpcEnvelope(params)

	r := httptest.NewRequest(http.MethodPost, "/cryptonode/authorize_rta_tx_response", bytes.NewReader(body))
	w := httptest.NewRecorder()
	AuthorizeRtaTxResponse(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp rpcResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
}

func TestAuthorizeRtaTxResponseRejectsBadSignature(t *testing.T) {
	setupTestServer(t)
	txID := core.TxId{3}
	pid := core.PaymentId{3}
	rtaCtx.SetAmount(txID, 1, time.Second)
	rtaCtx.SetPaymentIDFor(txID, pid, time.Second)

	pub2, _, _ := ed25519.GenerateKey(nil)
	var voter core.NodeKey
	copy(voter[:], pub2)
	params := core.AuthorizeRtaResponse{
		TxId:      txID.Hex(),
		Result:    int(core.VoteApproved),
		Signature: core.Signature{Signer: voter, ResultSig: []byte{1, 2, 3}, TxSig: []byte{4, 5, 6}},
	}
	body := rpcEnvelope(params)

	r := httptest.NewRequest(http.MethodPost, "/cryptonode/authorize_rta_tx_response", bytes.NewReader(body))
	w := httptest.NewRecorder()
	AuthorizeRtaTxResponse(w, r)

	var resp rpcResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != core.ErrCodeSignatureFailed {
		t.Fatalf("expected signature failure, got %+v", resp.Error)
	}
}
