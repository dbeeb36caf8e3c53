package conversation

// #region imports
import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/profile"
)

// #endregion

// #region split-constants

// Proposal split: top causes share 70% of the amount, the remaining 30%
// is held as a standing yield reserve.
const (
	grantShare     = 70
	topCauseCount  = 3
	yieldReserveID = "yield_reserve"
)

// #endregion

// #region build

// BuildRequest turns a confirmed deposit into a proposed allocation from
// the donor's stored cause affinities. The top 3 scoring categories split
// 70% of the amount evenly (integer remainder to the first line); 30% is
// reserved as a yield line. Without a profile the grant portion falls back
// to a single general-impact line. Line amounts always sum to amount.
func BuildRequest(userID, conversationID, depositID string, amount int64, analysis *profile.Analysis, riskTolerance string) alloc.Request {
	grantTotal := amount * grantShare / 100
	reserve := amount - grantTotal

	var proposed []alloc.SuggestedAllocation

	top := topAffinities(analysis)
	if len(top) == 0 {
		proposed = append(proposed, alloc.SuggestedAllocation{
			CauseID:    "general_impact",
			CauseName:  "General Impact",
			Amount:     grantTotal,
			Percentage: pct(grantTotal, amount),
			Reasoning:  "No donor profile on record; defaulting to the general impact pool",
		})
	} else {
		per := grantTotal / int64(len(top))
		remainder := grantTotal - per*int64(len(top))
		for i, aff := range top {
			lineAmount := per
			if i == 0 {
				lineAmount += remainder
			}
			proposed = append(proposed, alloc.SuggestedAllocation{
				CauseID:    aff.CauseID,
				CauseName:  causeDisplayName(aff.CauseID),
				Amount:     lineAmount,
				Percentage: pct(lineAmount, amount),
				Reasoning:  fmt.Sprintf("Affinity %.2f from questionnaire. %s", aff.AffinityScore, aff.Reasoning),
			})
		}
	}

	proposed = append(proposed, alloc.SuggestedAllocation{
		CauseID:    yieldReserveID,
		CauseName:  "Yield Reserve",
		Amount:     reserve,
		Percentage: pct(reserve, amount),
		Reasoning:  "Standing 30% reserve deployed to the yield position",
	})

	var causes []string
	for _, aff := range top {
		causes = append(causes, aff.CauseID)
	}
	if riskTolerance == "" {
		riskTolerance = "medium"
	}

	return alloc.Request{
		ID:             uuid.New().String(),
		DepositID:      depositID,
		UserID:         userID,
		ConversationID: conversationID,
		Amount:         amount,
		Preferences: alloc.UserPreferences{
			Causes:        causes,
			RiskTolerance: riskTolerance,
		},
		Proposed:  proposed,
		Status:    alloc.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// #endregion

// #region helpers

// topAffinities returns up to 3 positive-score affinities, already ranked.
func topAffinities(analysis *profile.Analysis) []profile.CauseAffinity {
	if analysis == nil {
		return nil
	}
	var top []profile.CauseAffinity
	for _, aff := range analysis.Affinities {
		if aff.AffinityScore <= 0 {
			continue
		}
		top = append(top, aff)
		if len(top) == topCauseCount {
			break
		}
	}
	return top
}

func pct(part, total int64) float32 {
	if total == 0 {
		return 0
	}
	return float32(part) / float32(total) * 100
}

// causeDisplayName maps cause IDs to donor-facing names.
var causeDisplayNames = map[string]string{
	"animal_welfare":        "Animal Welfare",
	"climate_action":        "Climate Action",
	"community_development": "Community Development",
	"disaster_relief":       "Disaster Relief",
	"education":             "Education",
	"global_health":         "Global Health",
	"poverty_relief":        "Poverty Relief",
}

func causeDisplayName(id string) string {
	if name, ok := causeDisplayNames[id]; ok {
		return name
	}
	return id
}

// #endregion
