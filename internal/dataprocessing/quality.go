package dataprocessing

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"seafoodpulse/pkg/contracts/domain"
)

// SimilarLabelThreshold is the Jaro-Winkler score at which two market
// labels are reported as probable duplicates.
const SimilarLabelThreshold = 0.92

// CheckQuality reports duplicate rows, all-zero rows, padded total rows that
// were kept as a market, and market labels that are probably spelling
// variants of each other.
func CheckQuality(records []domain.MarketRecord) domain.QualityReport {
	report := domain.QualityReport{TotalRecords: len(records)}

	seen := make(map[domain.MarketRecord]struct{}, len(records))
	labels := make(map[string]struct{})
	for _, r := range records {
		if _, dup := seen[r]; dup {
			report.DuplicateRecords++
		} else {
			seen[r] = struct{}{}
		}
		if allZero(r) {
			report.ZeroValueRecords++
		}
		// only a padded sentinel survives extraction with this label
		if r.Market == TotalSentinel {
			report.TotalRowsAsMarkets++
		}
		labels[r.Market] = struct{}{}
	}

	report.SimilarMarketLabels = SimilarLabels(labels, SimilarLabelThreshold)
	return report
}

// SimilarLabels compares every pair of distinct labels case-insensitively.
// Pairs are ordered by score, highest first.
func SimilarLabels(labels map[string]struct{}, threshold float64) []domain.SimilarLabel {
	names := make([]string, 0, len(labels))
	for l := range labels {
		names = append(names, l)
	}
	sort.Strings(names)

	var out []domain.SimilarLabel
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
			if a == b {
				out = append(out, domain.SimilarLabel{A: names[i], B: names[j], Score: 1})
				continue
			}
			score := matchr.JaroWinkler(a, b, false)
			if score >= threshold {
				out = append(out, domain.SimilarLabel{A: names[i], B: names[j], Score: Round2(score)})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func allZero(r domain.MarketRecord) bool {
	return r.CurrentVolume == 0 && r.CurrentPrice == 0 &&
		r.PriorVolume == 0 && r.PriorPrice == 0 &&
		r.YTDCurrentVolume == 0 && r.YTDCurrentPrice == 0 &&
		r.YTDPriorVolume == 0 && r.YTDPriorPrice == 0
}
