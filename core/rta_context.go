package core

// rta_context.go – PaymentContext: a process-wide keyed store mapping
// (payment_id | tx_id) x facet -> value, TTL-bound, refreshed on write,
// never on read. It is the substrate every other RTA component reads and
// writes through; components never cache values across handler
// invocations.

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// DefaultRtaTTL is the default entry lifetime, refreshed on every write.
const DefaultRtaTTL = 60 * time.Second

var rtaLogger = logrus.StandardLogger()

// SetRtaLogger overrides the package-level logger used by RtaContext,
// mirroring SetSecurityLogger in security.go. RequestPhase and
// ResponsePhase log through logrus's standard logger and are not affected.
func SetRtaLogger(l *logrus.Logger) {
	if l != nil {
		rtaLogger = l
	}
}

// RtaContext is a process-wide thread-safe keyed store. It
// wraps a patrickmn/go-cache instance, which already supplies the
// refresh-on-write, silent-expiry-on-read semantics this store requires; the
// only behaviour layered on top is the monotone-status guard on
// "<payment_id>:status" keys, which go-cache itself has no notion of.
type RtaContext struct {
	store *gocache.Cache
	mu    sync.Mutex // serializes read-decide-write sequences (tally CAS, status guard)
}

// NewRtaContext builds a context whose entries default to ttl and are swept
// for expiry every cleanupInterval. A cleanupInterval of zero disables the
// background reaper (entries still expire lazily on access).
func NewRtaContext(ttl, cleanupInterval time.Duration) *RtaContext {
	if ttl <= 0 {
		ttl = DefaultRtaTTL
	}
	return &RtaContext{store: gocache.New(ttl, cleanupInterval)}
}

func rtaTxKey(id TxId, facet string) string           { return fmt.Sprintf("%s:%s", id.Hex(), facet) }
func rtaPaymentKey(id PaymentId, facet string) string { return fmt.Sprintf("%s:%s", id.Hex(), facet) }

// Set is the general insert-or-overwrite primitive. A write to a key ending
// in ":status" is silently dropped if the existing value is a finite
// RtaStatus — status is the one facet with a monotonicity
// invariant, so the guard lives here rather than in each caller.
func (c *RtaContext) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl)
}

func (c *RtaContext) setLocked(key string, value interface{}, ttl time.Duration) {
	if isStatusKey(key) {
		if existing, ok := c.store.Get(key); ok {
			if st, ok := existing.(RtaStatus); ok && st.IsFinite() {
				rtaLogger.WithField("key", key).Debug("rta: dropped write to finite status")
				return
			}
		}
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration // the ttl this context was built with
	}
	c.store.Set(key, value, ttl)
	observeContextSize(c.store.ItemCount())
}

func isStatusKey(key string) bool {
	return len(key) >= 7 && key[len(key)-7:] == ":status"
}

// Get returns the value stored at key, or (nil, false) if absent or expired.
func (c *RtaContext) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Has reports whether key currently resolves to a live value.
func (c *RtaContext) Has(key string) bool {
	_, ok := c.store.Get(key)
	return ok
}

// Remove explicitly deletes key, used to clean up a completed payment's
// working entries.
func (c *RtaContext) Remove(key string) {
	c.store.Delete(key)
	observeContextSize(c.store.ItemCount())
}

//---------------------------------------------------------------------
// Typed facade — one accessor per logical facet
//---------------------------------------------------------------------

// SetTxBytes persists the raw transaction bytes under "<tx_id>:tx".
func (c *RtaContext) SetTxBytes(id TxId, tx []byte, ttl time.Duration) {
	c.Set(rtaTxKey(id, "tx"), tx, ttl)
}

// TxBytes returns the raw transaction bytes for id, if live.
func (c *RtaContext) TxBytes(id TxId) ([]byte, bool) {
	v, ok := c.Get(rtaTxKey(id, "tx"))
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// SetPaymentIDFor associates a tx with the payment it belongs to.
func (c *RtaContext) SetPaymentIDFor(id TxId, pid PaymentId, ttl time.Duration) {
	c.Set(rtaTxKey(id, "payment_id"), pid, ttl)
}

// PaymentIDFor returns the payment id associated with a tx, if live.
func (c *RtaContext) PaymentIDFor(id TxId) (PaymentId, bool) {
	v, ok := c.Get(rtaTxKey(id, "payment_id"))
	if !ok {
		return PaymentId{}, false
	}
	pid, ok := v.(PaymentId)
	return pid, ok
}

// SetAmount persists the tx's declared amount in atomic units.
func (c *RtaContext) SetAmount(id TxId, amount uint64, ttl time.Duration) {
	c.Set(rtaTxKey(id, "amount"), amount, ttl)
}

// Amount returns the amount recorded for a tx, if live.
func (c *RtaContext) Amount(id TxId) (uint64, bool) {
	v, ok := c.Get(rtaTxKey(id, "amount"))
	if !ok {
		return 0, false
	}
	amt, ok := v.(uint64)
	return amt, ok
}

// SetTally persists the vote tally for a tx, refreshing its TTL.
func (c *RtaContext) SetTally(id TxId, tally VoteTally, ttl time.Duration) {
	c.Set(rtaTxKey(id, "tally"), tally, ttl)
}

// Tally returns the vote tally for a tx, if live.
func (c *RtaContext) Tally(id TxId) (VoteTally, bool) {
	v, ok := c.Get(rtaTxKey(id, "tally"))
	if !ok {
		return VoteTally{}, false
	}
	t, ok := v.(VoteTally)
	return t, ok
}

// SetStatus writes a payment's status, subject to the monotone-finite guard.
func (c *RtaContext) SetStatus(id PaymentId, status RtaStatus, ttl time.Duration) {
	c.Set(rtaPaymentKey(id, "status"), status, ttl)
}

// Status returns the status recorded for a payment; RtaNone if absent.
func (c *RtaContext) Status(id PaymentId) RtaStatus {
	v, ok := c.Get(rtaPaymentKey(id, "status"))
	if !ok {
		return RtaNone
	}
	st, ok := v.(RtaStatus)
	if !ok {
		return RtaNone
	}
	return st
}

// SetSupernode records this process's own node identity.
func (c *RtaContext) SetSupernode(key NodeKey) {
	c.store.Set("supernode", key, gocache.NoExpiration)
	observeContextSize(c.store.ItemCount())
}

// Supernode returns this process's own node identity, if set.
func (c *RtaContext) Supernode() (NodeKey, bool) {
	v, ok := c.Get("supernode")
	if !ok {
		return NodeKey{}, false
	}
	k, ok := v.(NodeKey)
	return k, ok
}

// WithTallyCAS serializes a read-decide-write cycle on a tx's tally
// so votes for the same tx_id can't race each other into the tally.
// mutate receives the current tally (zero value if absent) and returns the
// next tally to persist plus whether a write should actually happen.
func (c *RtaContext) WithTallyCAS(id TxId, ttl time.Duration, mutate func(current VoteTally, existed bool) (next VoteTally, write bool)) VoteTally {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, existed := VoteTally{}, false
	if v, ok := c.store.Get(rtaTxKey(id, "tally")); ok {
		if t, ok := v.(VoteTally); ok {
			current, existed = t, true
		}
	}
	next, write := mutate(current, existed)
	if write {
		c.setLocked(rtaTxKey(id, "tally"), next, ttl)
	}
	return next
}

// Cleanup removes the per-round working entries for a completed payment
// (tx bytes, amount, tally, payment id) while leaving the finite status live so
// idempotent re-delivery of the terminal broadcast still resolves
// correctly.
func (c *RtaContext) Cleanup(pid PaymentId, id TxId) {
	c.Remove(rtaTxKey(id, "tx"))
	c.Remove(rtaTxKey(id, "amount"))
	c.Remove(rtaTxKey(id, "tally"))
	c.Remove(rtaTxKey(id, "payment_id"))
}
