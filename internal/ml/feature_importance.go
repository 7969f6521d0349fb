package ml

import (
	"sort"
)

// FeatureStats summarises how much one column contributes to the ensemble.
type FeatureStats struct {
	Name       string  `json:"name"`
	TotalGain  float64 `json:"total_gain"`
	Share      float64 `json:"share"`
	SplitCount int     `json:"split_count"`
}

// FeatureImportance ranks columns by the total split gain they earned across
// every tree. Columns that never split are listed with zero gain. Ties are
// broken by column order.
func FeatureImportance(b *Booster, columns []string) []FeatureStats {
	stats := make([]FeatureStats, len(columns))
	for i, name := range columns {
		stats[i].Name = name
	}

	var total float64
	for _, t := range b.Trees {
		for _, n := range t.Nodes {
			if n.Leaf || n.Feature < 0 || n.Feature >= len(stats) {
				continue
			}
			stats[n.Feature].TotalGain += n.Gain
			stats[n.Feature].SplitCount++
			total += n.Gain
		}
	}

	if total > 0 {
		for i := range stats {
			stats[i].Share = stats[i].TotalGain / total
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalGain > stats[j].TotalGain
	})
	return stats
}
