package tone

import "github.com/LuyGGG/MonoMind/pkg/tone/ledger"

// ApplyResult is the answer to an apply request.
type ApplyResult struct {
	OK      bool   `json:"ok"`
	Scanned int    `json:"scanned"`
	Changed int    `json:"changed"`
	Failed  int    `json:"failed,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RevertResult is the answer to a revert request.
type RevertResult struct {
	OK       bool   `json:"ok"`
	Restored int    `json:"restored"`
	Error    string `json:"error,omitempty"`
}

// StatsResult summarises the ledger for diagnostics.
type StatsResult struct {
	OK          bool `json:"ok"`
	ToneApplied bool `json:"tone_applied"`
	ledger.Counts
}
