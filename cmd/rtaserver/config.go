package main

// config.go – settings for the RTA server. The primary path loads the
// shared synnergy-network/pkg/config file (viper-backed, config/default.yaml
// at the module root); a thin RTA_* environment fallback covers operators
// who run the binary without a YAML file on disk.

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"synnergy-network/pkg/config"
	"synnergy-network/pkg/utils"
)

// rtaServerConfig is the fully-resolved, typed settings this binary acts on.
type rtaServerConfig struct {
	Addr           string
	LedgerURL      string
	TTL            time.Duration
	NetworkTimeout time.Duration
	Quorum         quorumSettings
	// Peers is the RTA sample this node multicasts votes and broadcasts
	// status to. Sample construction itself is out of scope; this is just
	// the static list an operator configures for a fixed committee.
	Peers []string
}

type quorumSettings struct {
	VotesToReject                   int
	VotesToApproveLow               int
	VotesToApproveHigh              int
	ApproveHighThresholdAtomicUnits uint64
}

func loadRtaServerConfig() (rtaServerConfig, error) {
	_ = godotenv.Load("cmd/rtaserver/.env") // optional; missing file is not an error

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fallbackRtaServerConfig(), nil
	}

	rta := cfg.RTA
	out := rtaServerConfig{
		Addr:           orDefaultStr(rta.Addr, ":8090"),
		LedgerURL:      orDefaultStr(rta.LedgerURL, "http://127.0.0.1:18081"),
		TTL:            orDefaultSeconds(rta.TTLSeconds, 60),
		NetworkTimeout: orDefaultSeconds(rta.NetworkTimeoutSeconds, 10),
		Quorum: quorumSettings{
			VotesToReject:                   orDefaultInt(rta.VotesToReject, 1),
			VotesToApproveLow:               orDefaultInt(rta.VotesToApproveLow, 2),
			VotesToApproveHigh:              orDefaultInt(rta.VotesToApproveHigh, 4),
			ApproveHighThresholdAtomicUnits: rta.ApproveHighThresholdAtomicUnits,
		},
	}
	if out.Quorum.ApproveHighThresholdAtomicUnits == 0 {
		out.Quorum.ApproveHighThresholdAtomicUnits = 100 * 1_000_000_000_000
	}
	out.Peers = splitPeers(utils.EnvOrDefault("RTA_PEERS", ""))
	return out, nil
}

func splitPeers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fallbackRtaServerConfig covers environments with no default.yaml under
// config/ or cmd/config on disk: plain RTA_* environment variables, or this binary's own defaults.
func fallbackRtaServerConfig() rtaServerConfig {
	return rtaServerConfig{
		Addr:           utils.EnvOrDefault("RTA_ADDR", ":8090"),
		LedgerURL:      utils.EnvOrDefault("RTA_LEDGER_URL", "http://127.0.0.1:18081"),
		TTL:            time.Duration(utils.EnvOrDefaultInt("RTA_TTL_SECONDS", 60)) * time.Second,
		NetworkTimeout: time.Duration(utils.EnvOrDefaultInt("RTA_NETWORK_TIMEOUT_SECONDS", 10)) * time.Second,
		Quorum: quorumSettings{
			VotesToReject:                   utils.EnvOrDefaultInt("RTA_VOTES_TO_REJECT", 1),
			VotesToApproveLow:               utils.EnvOrDefaultInt("RTA_VOTES_TO_APPROVE_LOW", 2),
			VotesToApproveHigh:              utils.EnvOrDefaultInt("RTA_VOTES_TO_APPROVE_HIGH", 4),
			ApproveHighThresholdAtomicUnits: utils.EnvOrDefaultUint64("RTA_APPROVE_HIGH_THRESHOLD", 100*1_000_000_000_000),
		},
		Peers: splitPeers(utils.EnvOrDefault("RTA_PEERS", "")),
	}
}

func orDefaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultSeconds(v, defSeconds int) time.Duration {
	if v == 0 {
		v = defSeconds
	}
	return time.Duration(v) * time.Second
}
