package profile

// #region imports
import (
	"sort"
	"strings"
)

// #endregion

// #region phrase-table

// archetypePhraseWeights maps canonical answers to per-archetype score
// contributions, summed before the moral-vector terms are added.
var archetypePhraseWeights = map[string]map[Archetype]float32{
	"Evidence and measurable outcomes":             {ArchetypeImpactMaximizer: 0.8},
	"Seeing direct impact on specific individuals": {ArchetypeImpactMaximizer: 0.5},
	"Helping people who cannot help themselves":    {ArchetypeImpactMaximizer: 0.4},
	"Protecting the weak is a duty":                {ArchetypeImpactMaximizer: 0.3, ArchetypeCommunityBuilder: 0.2},

	"Supporting my local community":       {ArchetypeCommunityBuilder: 0.8},
	"Standing by my own community":        {ArchetypeCommunityBuilder: 0.7},
	"Where my friends and family give":    {ArchetypeCommunityBuilder: 0.5},
	"Loyalty to the people who raised me": {ArchetypeCommunityBuilder: 0.5, ArchetypeLegacyBuilder: 0.2},

	"Funding structural reform":             {ArchetypeSystemChanger: 0.8},
	"Making the system fairer for everyone": {ArchetypeSystemChanger: 0.6},
	"Reward should follow effort":           {ArchetypeSystemChanger: 0.3},

	"Causes my faith calls me to":                     {ArchetypeFaithfulSteward: 0.8},
	"Honoring tradition and faith":                    {ArchetypeFaithfulSteward: 0.8},
	"Some things are sacred and should not be traded": {ArchetypeFaithfulSteward: 0.5},
	"Respect for institutions keeps us safe":          {ArchetypeFaithfulSteward: 0.4, ArchetypeLegacyBuilder: 0.3},

	"Building something that outlasts me": {ArchetypeLegacyBuilder: 0.8},

	"My heart tells me":                 {ArchetypeSpontaneousGiver: 0.8},
	"Nobody should tell me how to live": {ArchetypeSpontaneousGiver: 0.5},
	"Freedom to choose beats rules":     {ArchetypeSpontaneousGiver: 0.4},
}

// #endregion

// #region vector-coefficients

// vectorContribution adds the fixed linear combination of moral-vector
// dimensions for each archetype. These coefficients are part of the
// behavioral contract.
func vectorContribution(v MoralVector) map[Archetype]float32 {
	return map[Archetype]float32{
		ArchetypeImpactMaximizer:  0.5*v.Care + 0.3*v.Fairness,
		ArchetypeCommunityBuilder: 0.4*v.Loyalty + 0.3*v.Care,
		ArchetypeSystemChanger:    0.4*v.Fairness + 0.3*v.Liberty,
		ArchetypeFaithfulSteward:  0.4*v.Sanctity + 0.3*v.Authority,
		ArchetypeLegacyBuilder:    0.3*v.Authority + 0.2*v.Loyalty + 0.2*v.Sanctity,
		ArchetypeSpontaneousGiver: 0.4*v.Liberty + 0.2*v.Care,
	}
}

// #endregion

// #region cause-alignment

// archetypeCauseAlignment is the fixed cause-alignment map keyed by the
// primary archetype. Archetypes without an entry get an empty map.
var archetypeCauseAlignment = map[Archetype]map[string]float32{
	ArchetypeImpactMaximizer: {
		"global_health":  0.9,
		"poverty_relief": 0.8,
		"education":      0.6,
	},
	ArchetypeCommunityBuilder: {
		"community_development": 0.9,
		"education":             0.7,
		"poverty_relief":        0.5,
	},
	ArchetypeSystemChanger: {
		"climate_action": 0.8,
		"education":      0.6,
		"global_health":  0.5,
	},
	ArchetypeFaithfulSteward: {
		"poverty_relief":        0.7,
		"community_development": 0.6,
		"disaster_relief":       0.5,
	},
}

// #endregion

// #region infer

// InferArchetype scores the six archetypes from answer phrases plus the
// moral vector and derives primary, secondary traits, and confidence.
func InferArchetype(responses []Response, vector MoralVector) ArchetypeProfile {
	scores := make(map[Archetype]float32, len(AllArchetypes))
	for _, a := range AllArchetypes {
		scores[a] = 0
	}

	for _, r := range responses {
		weights, ok := archetypePhraseWeights[strings.TrimSpace(r.Answer)]
		if !ok {
			continue
		}
		for a, w := range weights {
			scores[a] += w
		}
	}

	for a, contrib := range vectorContribution(vector) {
		scores[a] += contrib
	}

	// Sort descending by score; canonical archetype order breaks ties so
	// identical inputs always produce identical output.
	ranked := make([]Archetype, len(AllArchetypes))
	copy(ranked, AllArchetypes)
	order := make(map[Archetype]int, len(AllArchetypes))
	for i, a := range AllArchetypes {
		order[a] = i
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return order[ranked[i]] < order[ranked[j]]
	})

	primary := ranked[0]
	primaryScore := scores[primary]

	// Secondary traits: above half the primary score, capped at 2,
	// preserving score order.
	var secondary []Archetype
	for _, a := range ranked[1:] {
		if scores[a] > 0.5*primaryScore && len(secondary) < 2 {
			secondary = append(secondary, a)
		}
	}

	// Saturating confidence: primary/(primary+1). Trends toward 1 only as
	// scores grow large, which keeps sparse data from looking certain.
	confidence := clamp01(primaryScore / (primaryScore + 1))

	alignment := map[string]float32{}
	if m, ok := archetypeCauseAlignment[primary]; ok {
		alignment = make(map[string]float32, len(m))
		for k, v := range m {
			alignment[k] = v
		}
	}

	return ArchetypeProfile{
		Primary:         primary,
		SecondaryTraits: secondary,
		Confidence:      confidence,
		CauseAlignment:  alignment,
	}
}

// #endregion
