package core

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"
)

func newTestRequestPhase(t *testing.T) (*RequestPhase, NodeKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var self NodeKey
	copy(self[:], pub)
	phase := &RequestPhase{
		Ctx:     NewRtaContext(time.Second, 0),
		Self:    self,
		SignKey: priv,
		TTL:     time.Second,
	}
	return phase, self, priv
}

func encodeRtaTx(t *testing.T, env RtaTxEnvelope) string {
	t.Helper()
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal tx: %v", err)
	}
	return hex.EncodeToString(raw)
}

func TestClientRequestAcksImmediately(t *testing.T) {
	phase, _, _ := newTestRequestPhase(t)
	out := phase.ClientRequest([]byte(`{}`))
	if out.Directive != DirectiveAgain {
		t.Fatalf("expected Again, got %v", out.Directive)
	}
	if out.Result == nil || out.Result.Status != "OK" {
		t.Fatalf("expected OK ack, got %+v", out.Result)
	}
}

func TestClientRequestAgainApprovesAndMulticasts(t *testing.T) {
	phase, self, _ := newTestRequestPhase(t)
	txHex := encodeRtaTx(t, RtaTxEnvelope{
		Type:    RtaTxTypeRTA,
		Outputs: []RtaTxOutput{{To: self, Amount: 10}},
	})
	pid := PaymentId{1, 2, 3}
	req := AuthorizeRtaRequest{PaymentId: pid.Hex(), Amount: 1000, TxHex: txHex}
	body, _ := json.Marshal(req)

	out := phase.ClientRequestAgain(body, []string{"peer1"})
	if out.Directive != DirectiveForward {
		t.Fatalf("expected Forward, got %v (err=%v)", out.Directive, out.Err)
	}
	var resp AuthorizeRtaResponse
	if err := json.Unmarshal(out.Multicast, &resp); err != nil {
		t.Fatalf("unmarshal multicast: %v", err)
	}
	if resp.Result != int(VoteApproved) {
		t.Fatalf("expected approved vote, got %d", resp.Result)
	}
	if len(out.Receivers) != 1 || out.Receivers[0] != "peer1" {
		t.Fatalf("expected receivers to be carried through, got %v", out.Receivers)
	}
}

func TestClientRequestAgainRejectsZeroFee(t *testing.T) {
	phase, self, _ := newTestRequestPhase(t)
	other := NodeKey{9, 9, 9}
	if other == self {
		t.Fatal("test fixture collision")
	}
	txHex := encodeRtaTx(t, RtaTxEnvelope{
		Type:    RtaTxTypeRTA,
		Outputs: []RtaTxOutput{{To: other, Amount: 10}},
	})
	pid := PaymentId{4}
	req := AuthorizeRtaRequest{PaymentId: pid.Hex(), Amount: 1, TxHex: txHex}
	body, _ := json.Marshal(req)

	out := phase.ClientRequestAgain(body, nil)
	if out.Directive != DirectiveForward {
		t.Fatalf("expected Forward even on rejection vote, got %v (err=%v)", out.Directive, out.Err)
	}
	var resp AuthorizeRtaResponse
	json.Unmarshal(out.Multicast, &resp)
	if resp.Result != int(VoteRejected) {
		t.Fatalf("expected rejected vote for zero fee, got %d", resp.Result)
	}
}

func TestClientRequestAgainAlreadyProcessed(t *testing.T) {
	phase, self, _ := newTestRequestPhase(t)
	txHex := encodeRtaTx(t, RtaTxEnvelope{
		Type:    RtaTxTypeRTA,
		Outputs: []RtaTxOutput{{To: self, Amount: 10}},
	})
	raw, _ := hex.DecodeString(txHex)
	_, txID, _ := ParseRtaTransaction(raw)
	phase.Ctx.SetTxBytes(txID, raw, time.Second)

	pid := PaymentId{5}
	req := AuthorizeRtaRequest{PaymentId: pid.Hex(), Amount: 1, TxHex: txHex}
	body, _ := json.Marshal(req)

	out := phase.ClientRequestAgain(body, nil)
	if out.Err == nil || out.Err.Code != ErrCodeAlreadyProcessed {
		t.Fatalf("expected already-processed error, got %+v", out.Err)
	}
}

func TestClientRequestAgainInvalidPaymentId(t *testing.T) {
	phase, self, _ := newTestRequestPhase(t)
	txHex := encodeRtaTx(t, RtaTxEnvelope{
		Type:    RtaTxTypeRTA,
		Outputs: []RtaTxOutput{{To: self, Amount: 10}},
	})
	req := AuthorizeRtaRequest{PaymentId: "not-hex", Amount: 1, TxHex: txHex}
	body, _ := json.Marshal(req)

	out := phase.ClientRequestAgain(body, nil)
	if out.Err == nil || out.Err.Code != ErrCodeInvalidPaymentId {
		t.Fatalf("expected invalid payment id error, got %+v", out.Err)
	}

	raw, _ := hex.DecodeString(txHex)
	_, txID, _ := ParseRtaTransaction(raw)
	if _, ok := phase.Ctx.Amount(txID); ok {
		t.Fatal("a rejected payment id must not leave an amount recorded in shared state")
	}
}

func TestClientRequestAgainMalformedTxHex(t *testing.T) {
	phase, _, _ := newTestRequestPhase(t)
	req := AuthorizeRtaRequest{PaymentId: PaymentId{1}.Hex(), Amount: 1, TxHex: "zz"}
	body, _ := json.Marshal(req)

	out := phase.ClientRequestAgain(body, nil)
	if out.Err == nil || out.Err.Code != ErrCodeInvalidTransaction {
		t.Fatalf("expected invalid transaction error, got %+v", out.Err)
	}
}

func TestCryptonodeReplyCompletesOnOK(t *testing.T) {
	phase, _, _ := newTestRequestPhase(t)
	out := phase.CryptonodeReply(EnvelopeAck{Status: "OK"})
	if out.Directive != DirectiveFinish || out.Err != nil {
		t.Fatalf("expected clean finish, got %+v", out)
	}
}

func TestCryptonodeReplyFailsOnBadAck(t *testing.T) {
	phase, _, _ := newTestRequestPhase(t)
	out := phase.CryptonodeReply(EnvelopeAck{Status: "ERROR"})
	if out.Err == nil {
		t.Fatal("expected failure on non-OK ack")
	}
}
