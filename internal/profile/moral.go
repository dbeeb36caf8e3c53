package profile

// #region imports
import "strings"

// #endregion

// #region dimension-keys

const (
	dimCare      = "care"
	dimFairness  = "fairness"
	dimLoyalty   = "loyalty"
	dimAuthority = "authority"
	dimSanctity  = "sanctity"
	dimLiberty   = "liberty"
)

// #endregion

// #region phrase-table

// moralPhraseWeights maps canonical questionnaire answers to
// moral-foundation weight contributions. Answers that match no entry
// contribute nothing; that is a valid zero-signal result, not an error.
var moralPhraseWeights = map[string]map[string]float32{
	// v1: what matters most when you give
	"Helping people who cannot help themselves": {dimCare: 0.9},
	"Making the system fairer for everyone":     {dimFairness: 0.9, dimLiberty: 0.3},
	"Standing by my own community":              {dimLoyalty: 0.9, dimCare: 0.2},
	"Honoring tradition and faith":              {dimSanctity: 0.9, dimAuthority: 0.4},

	// v2: which statement resonates most
	"Care for the most vulnerable":            {dimCare: 0.9, dimFairness: 0.2},
	"Reward should follow effort":             {dimFairness: 0.8, dimAuthority: 0.2},
	"Freedom to choose beats rules":           {dimLiberty: 0.9},
	"Respect for institutions keeps us safe":  {dimAuthority: 0.9, dimLoyalty: 0.3},

	// v3: core conviction
	"Loyalty to the people who raised me":             {dimLoyalty: 0.8, dimSanctity: 0.2},
	"Some things are sacred and should not be traded": {dimSanctity: 0.9},
	"Nobody should tell me how to live":               {dimLiberty: 0.8, dimFairness: 0.2},
	"Protecting the weak is a duty":                   {dimCare: 0.7, dimAuthority: 0.3},

	// g1: what kind of giving feels most rewarding
	"Seeing direct impact on specific individuals": {dimCare: 0.8},
	"Funding structural reform":                    {dimFairness: 0.7, dimLiberty: 0.3},
	"Supporting my local community":                {dimLoyalty: 0.7, dimCare: 0.3},
	"Building something that outlasts me":          {dimAuthority: 0.4, dimSanctity: 0.4},

	// g2: how you decide where to give
	"Evidence and measurable outcomes": {dimFairness: 0.5, dimCare: 0.3},
	"My heart tells me":                {dimCare: 0.6, dimLiberty: 0.2},
	"Where my friends and family give": {dimLoyalty: 0.8},
	"Causes my faith calls me to":      {dimSanctity: 0.8, dimAuthority: 0.2},
}

// #endregion

// #region calculate

// CalculateMoralVector accumulates phrase-table weights over the responses
// and normalizes by the number of matched answers. Unmatched responses are
// silently ignored. Every dimension of the result lies in [0,1].
func CalculateMoralVector(responses []Response) MoralVector {
	acc := map[string]float32{}
	matches := 0

	for _, r := range responses {
		weights, ok := moralPhraseWeights[strings.TrimSpace(r.Answer)]
		if !ok {
			continue
		}
		matches++
		for dim, w := range weights {
			acc[dim] += w
		}
	}

	div := float32(matches)
	if div < 1 {
		div = 1
	}

	return MoralVector{
		Care:      clamp01(acc[dimCare] / div),
		Fairness:  clamp01(acc[dimFairness] / div),
		Loyalty:   clamp01(acc[dimLoyalty] / div),
		Authority: clamp01(acc[dimAuthority] / div),
		Sanctity:  clamp01(acc[dimSanctity] / div),
		Liberty:   clamp01(acc[dimLiberty] / div),
	}
}

// #endregion

// #region helpers

// clamp01 restricts v to [0, 1].
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
