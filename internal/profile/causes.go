package profile

// #region imports
import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// #endregion

// #region cause-categories

// causeCategory pairs a cause ID with the keywords that signal interest.
type causeCategory struct {
	ID       string
	Keywords []string
}

// causeCategories is the fixed cause set, in canonical ID order.
var causeCategories = []causeCategory{
	{"animal_welfare", []string{"animal", "wildlife", "rescue", "species"}},
	{"climate_action", []string{"climate", "environment", "carbon", "renewable", "conservation"}},
	{"community_development", []string{"community", "local", "neighborhood", "housing"}},
	{"disaster_relief", []string{"disaster", "emergency", "refugee", "crisis"}},
	{"education", []string{"education", "school", "literacy", "teacher", "scholarship"}},
	{"global_health", []string{"health", "disease", "malaria", "vaccine", "medical", "clinic"}},
	{"poverty_relief", []string{"poverty", "hunger", "homeless", "food", "shelter"}},
}

// keywordScore is the affinity added per distinct keyword match.
const keywordScore = 0.3

// #endregion

// #region infer

// InferCauseAffinities scans responses for cause keywords. Each distinct
// keyword match adds 0.3 to that cause, capped at 1.0. The result is
// sorted non-increasing by score with cause ID breaking ties.
//
// Zero-match causes are included by a deterministic baseline policy: the
// first baselineCauses unmatched categories in canonical ID order. When
// rng is non-nil, each unmatched cause is instead kept with probability
// 0.5 from the seeded source, matching the sampled behavior the
// deterministic policy replaced.
func inferCauseAffinities(responses []Response, baselineCauses int, rng *rand.Rand) []CauseAffinity {
	var lowered []string
	for _, r := range responses {
		lowered = append(lowered, strings.ToLower(r.Answer))
	}

	var out []CauseAffinity
	baselineKept := 0
	for _, cat := range causeCategories {
		var matched []string
		for _, kw := range cat.Keywords {
			for _, text := range lowered {
				if strings.Contains(text, kw) {
					matched = append(matched, kw)
					break
				}
			}
		}

		if len(matched) > 0 {
			score := clamp01(keywordScore * float32(len(matched)))
			out = append(out, CauseAffinity{
				CauseID:       cat.ID,
				AffinityScore: score,
				Reasoning:     fmt.Sprintf("Mentioned: %s", strings.Join(matched, ", ")),
			})
			continue
		}

		keep := false
		if rng != nil {
			keep = rng.Float64() > 0.5
		} else if baselineKept < baselineCauses {
			keep = true
		}
		if keep {
			baselineKept++
			out = append(out, CauseAffinity{
				CauseID:       cat.ID,
				AffinityScore: 0,
				Reasoning:     "No direct mention; included as baseline",
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AffinityScore != out[j].AffinityScore {
			return out[i].AffinityScore > out[j].AffinityScore
		}
		return out[i].CauseID < out[j].CauseID
	})
	return out
}

// #endregion
