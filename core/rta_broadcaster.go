package core

// rta_broadcaster.go – StatusBroadcaster: fans a payment's terminal status
// out to the rest of the sample and interested external observers, and
// resolves the transport's acknowledgement.

import (
	"context"
	"fmt"
)

// StatusBroadcaster owns the single StatusBroadcastReply state: submit the
// signed status payload via the transport, verify its ack, and return OK
// upstream. Multiple broadcasts for the same (payment_id, finite_status)
// are permitted — downstream listeners deduplicate by payment_id.
type StatusBroadcaster struct {
	Transport RtaTransport
}

// Publish submits payload (produced by ResponsePhase.signedStatusPayload)
// to receivers and validates the transport's ack.
func (b *StatusBroadcaster) Publish(ctx context.Context, status RtaStatus, receivers []string, payload []byte, callbackURI string) (*AckResult, *RtaError) {
	ack, err := b.Transport.Broadcast(ctx, receivers, payload, callbackURI)
	if err != nil {
		return nil, ErrInternal(err)
	}
	if ack.Status != "OK" {
		return nil, ErrInternal(fmt.Errorf("broadcast ack status %q", ack.Status))
	}
	observeStatusBroadcast(status)
	return &AckResult{Status: "OK"}, nil
}

// Cleanup removes the payment's per-round working entries once its
// broadcast has been acknowledged.
func (b *StatusBroadcaster) Cleanup(ctx *RtaContext, pid PaymentId, txID TxId) {
	ctx.Cleanup(pid, txID)
}
