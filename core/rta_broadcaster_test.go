package core

import (
	"context"
	"testing"
	"time"
)

type fakeRtaTransport struct {
	ack         EnvelopeAck
	err         error
	lastPayload []byte
	lastTx      string
}

func (f *fakeRtaTransport) Multicast(ctx context.Context, receivers []string, payload []byte, callbackURI string) (EnvelopeAck, error) {
	f.lastPayload = payload
	return f.ack, f.err
}

func (f *fakeRtaTransport) Broadcast(ctx context.Context, receivers []string, payload []byte, callbackURI string) (EnvelopeAck, error) {
	f.lastPayload = payload
	return f.ack, f.err
}

func (f *fakeRtaTransport) SendRawTransaction(ctx context.Context, txHex string) (SendRawTransactionReply, error) {
	f.lastTx = txHex
	return SendRawTransactionReply{Status: "OK"}, nil
}

func TestStatusBroadcasterPublishSuccess(t *testing.T) {
	transport := &fakeRtaTransport{ack: EnvelopeAck{Status: "OK"}}
	b := &StatusBroadcaster{Transport: transport}

	res, err := b.Publish(context.Background(), RtaSuccess, []string{"peer1"}, []byte(`{"payment_id":"ab"}`), "")
	if err != nil {
		t.Fatalf("expected success, got %+v", err)
	}
	if res.Status != "OK" {
		t.Fatalf("expected OK result, got %+v", res)
	}
	if string(transport.lastPayload) != `{"payment_id":"ab"}` {
		t.Fatal("expected payload to reach the transport unchanged")
	}
}

func TestStatusBroadcasterPublishBadAck(t *testing.T) {
	transport := &fakeRtaTransport{ack: EnvelopeAck{Status: "ERROR"}}
	b := &StatusBroadcaster{Transport: transport}

	_, err := b.Publish(context.Background(), RtaFailTimedOut, nil, []byte(`{}`), "")
	if err == nil {
		t.Fatal("expected an error on a non-OK ack")
	}
}

func TestStatusBroadcasterCleanupDelegatesToContext(t *testing.T) {
	ctx := NewRtaContext(time.Second, 0)
	pid := PaymentId{1}
	txID := TxId{2}
	ctx.SetTxBytes(txID, []byte("raw"), time.Second)
	ctx.SetStatus(pid, RtaSuccess, time.Second)

	b := &StatusBroadcaster{Transport: &fakeRtaTransport{}}
	b.Cleanup(ctx, pid, txID)

	if ctx.Has(rtaTxKey(txID, "tx")) {
		t.Fatal("expected tx bytes to be cleaned up")
	}
	if got := ctx.Status(pid); got != RtaSuccess {
		t.Fatalf("expected status to survive cleanup, got %s", got)
	}
}
