// Package chainconfig is the static per-chain finalization-delay table
// (spec §4.1, C1). It is a pure value, not environment configuration, so it
// intentionally skips viper/config machinery — see DESIGN.md.
package chainconfig

// DefaultFinalizationThresholdSeconds is used for any chain not present in
// the table below (spec S1: default 3).
const DefaultFinalizationThresholdSeconds int64 = 3

// finalizationSeconds maps chainId -> finalization delay in seconds. Values
// below reproduce the literal scenario in spec §8 (S1).
var finalizationSeconds = map[uint64]int64{
	1:    25,
	10:   2,
	8453: 4,
}

// FinalizationThreshold returns the finalization delay, in seconds, for the
// given chain. Unknown chains fall back to DefaultFinalizationThresholdSeconds.
func FinalizationThreshold(chainID uint64) int64 {
	if v, ok := finalizationSeconds[chainID]; ok {
		return v
	}
	return DefaultFinalizationThresholdSeconds
}

// SupportedChain is the §6 /health response shape for one configured chain.
type SupportedChain struct {
	ChainID                     uint64 `json:"chainId"`
	FinalizationThresholdSeconds int64  `json:"finalizationThresholdSeconds"`
}

// SupportedChains lists every chain with an explicit (non-default) entry, in
// ascending chain-id order, for the /health response.
func SupportedChains() []SupportedChain {
	ids := make([]uint64, 0, len(finalizationSeconds))
	for id := range finalizationSeconds {
		ids = append(ids, id)
	}
	// simple insertion sort: the table is tiny and static
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	out := make([]SupportedChain, 0, len(ids))
	for _, id := range ids {
		out = append(out, SupportedChain{ChainID: id, FinalizationThresholdSeconds: finalizationSeconds[id]})
	}
	return out
}

// ResetPeriods is the normative table indexed by resetPeriodIndex (spec §3):
// {1, 15, 60, 600, 3900, 86400, 612000, 2592000} seconds.
var ResetPeriods = [8]int64{1, 15, 60, 600, 3900, 86400, 612000, 2592000}
