package main

// cmd/rtaserver runs the RTA authorization committee member as a standalone
// JSON-RPC HTTP service: one RequestPhase, one ResponsePhase and one
// StatusBroadcaster sharing a single RtaContext, fronted by gorilla/mux.

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	core "synnergy-network/core"

	"synnergy-network/cmd/rtaserver/server"
)

func main() {
	cfg, err := loadRtaServerConfig()
	if err != nil {
		logrus.WithError(err).Fatal("rtaserver: load config")
	}

	self, signKey, err := bootstrapSupernodeIdentity()
	if err != nil {
		logrus.WithError(err).Fatal("rtaserver: bootstrap identity")
	}

	ctx := core.NewRtaContext(cfg.TTL, cfg.TTL)
	ctx.SetSupernode(self)

	transport := core.NewHTTPTransport(self.Hex(), cfg.LedgerURL, cfg.NetworkTimeout)

	quorum := core.QuorumConfig{
		VotesToReject:                   cfg.Quorum.VotesToReject,
		VotesToApproveLow:               cfg.Quorum.VotesToApproveLow,
		VotesToApproveHigh:              cfg.Quorum.VotesToApproveHigh,
		ApproveHighThresholdAtomicUnits: cfg.Quorum.ApproveHighThresholdAtomicUnits,
	}

	reqPhase := &core.RequestPhase{
		Ctx:       ctx,
		Transport: transport,
		Self:      self,
		SignKey:   signKey,
		TTL:       cfg.TTL,
	}
	respPhase := &core.ResponsePhase{
		Ctx:     ctx,
		Quorum:  quorum,
		Self:    self,
		SignKey: signKey,
		TTL:     cfg.TTL,
	}
	broadcaster := &core.StatusBroadcaster{Transport: transport}

	server.Init(ctx, reqPhase, respPhase, broadcaster, transport, cfg.Peers)

	router := server.NewRouter()
	logrus.WithFields(logrus.Fields{"addr": cfg.Addr, "supernode": self.Hex()}).Info("rtaserver: listening")
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		logrus.WithError(err).Fatal("rtaserver: serve")
	}
}

// bootstrapSupernodeIdentity derives this node's signing identity from the
// BIP-39 mnemonic in RTA_SUPERNODE_MNEMONIC, or from a freshly generated
// random wallet when that variable is unset (the generated mnemonic is not
// stored, so each such run gets a new identity): a single keypair fixed for
// the process lifetime, sourced from core's existing HD wallet rather than
// a bespoke loader.
func bootstrapSupernodeIdentity() (core.NodeKey, []byte, error) {
	mnemonic := os.Getenv("RTA_SUPERNODE_MNEMONIC")
	var wallet *core.HDWallet
	var err error
	if mnemonic != "" {
		wallet, err = core.WalletFromMnemonic(mnemonic, os.Getenv("RTA_SUPERNODE_PASSPHRASE"))
	} else {
		wallet, _, err = core.NewRandomWallet(128)
	}
	if err != nil {
		return core.NodeKey{}, nil, err
	}

	priv, pub, err := wallet.PrivateKey(0, 0)
	if err != nil {
		return core.NodeKey{}, nil, err
	}
	var self core.NodeKey
	copy(self[:], pub)
	return self, priv, nil
}
