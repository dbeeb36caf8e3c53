package metacog

// #region imports
import (
	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/profile"
)

// #endregion

// #region input

// Input bundles everything the evaluator inspects. Profile is nil when the
// donor has no archetype profile on record; HasMoralVector and
// HasRecommendationProfile flag the other optional inputs.
type Input struct {
	Request alloc.Request   `json:"request"`
	Fund    alloc.FundState `json:"fund"`

	Profile                  *profile.ArchetypeProfile `json:"profile,omitempty"`
	HasMoralVector           bool                      `json:"has_moral_vector"`
	HasRecommendationProfile bool                      `json:"has_recommendation_profile"`

	// RecommendationConfidence is the upstream recommendation's confidence,
	// restated in the reasoning chain.
	RecommendationConfidence float32 `json:"recommendation_confidence"`
}

// #endregion

// #region reasoning-step

// ReasoningStep is one entry of the fixed audit narrative.
type ReasoningStep struct {
	Step       int    `json:"step"`
	Premise    string `json:"premise"`
	Conclusion string `json:"conclusion"`
}

// #endregion

// #region result

// Result is the meta-cognitive self-assessment of a pending decision.
type Result struct {
	Confidence               float32         `json:"confidence"` // [0,1]
	DataQuality              float32         `json:"data_quality"`
	Complexity               float32         `json:"complexity"`
	Precedent                float32         `json:"precedent"`
	UncertaintySources       []string        `json:"uncertainty_sources"`
	ReasoningChain           []ReasoningStep `json:"reasoning_chain"`
	HumanOverrideRecommended bool            `json:"human_override_recommended"`
}

// #endregion

// #region weights

// Sub-score weights and override thresholds. Exact contract.
const (
	weightDataQuality = 0.40
	weightComplexity  = 0.30
	weightPrecedent   = 0.30

	overrideConfidenceFloor = 0.70
	overrideSourceCeiling   = 5
	overrideAmountCeiling   = 100_000

	lowConfidenceFlag = 0.50
)

// #endregion
