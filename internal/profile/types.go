package profile

// #region imports
import "time"

// #endregion

// #region response

// Response is a single questionnaire answer. Ephemeral input: stored raw,
// never persisted as a typed entity.
type Response struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// #endregion

// #region moral-vector

// MoralVector holds the six moral-foundation dimensions, each in [0,1].
// Immutable after creation.
type MoralVector struct {
	Care      float32 `json:"care"`
	Fairness  float32 `json:"fairness"`
	Loyalty   float32 `json:"loyalty"`
	Authority float32 `json:"authority"`
	Sanctity  float32 `json:"sanctity"`
	Liberty   float32 `json:"liberty"`
}

// #endregion

// #region archetype

// Archetype is one of six fixed donor behavioral categories.
type Archetype string

const (
	ArchetypeImpactMaximizer  Archetype = "impact_maximizer"
	ArchetypeCommunityBuilder Archetype = "community_builder"
	ArchetypeSystemChanger    Archetype = "system_changer"
	ArchetypeFaithfulSteward  Archetype = "faithful_steward"
	ArchetypeLegacyBuilder    Archetype = "legacy_builder"
	ArchetypeSpontaneousGiver Archetype = "spontaneous_giver"
)

// AllArchetypes lists every archetype in canonical order.
var AllArchetypes = []Archetype{
	ArchetypeImpactMaximizer,
	ArchetypeCommunityBuilder,
	ArchetypeSystemChanger,
	ArchetypeFaithfulSteward,
	ArchetypeLegacyBuilder,
	ArchetypeSpontaneousGiver,
}

// #endregion

// #region archetype-profile

// ArchetypeProfile is the derived behavioral profile of a donor.
type ArchetypeProfile struct {
	Primary         Archetype          `json:"primary_archetype"`
	SecondaryTraits []Archetype        `json:"secondary_traits"` // at most 2, score order, excludes primary
	Confidence      float32            `json:"confidence"`       // [0,1]
	CauseAlignment  map[string]float32 `json:"cause_alignment"`
}

// #endregion

// #region cause-affinity

// CauseAffinity is one ranked entry of a cause-affinity computation.
type CauseAffinity struct {
	CauseID       string  `json:"cause_id"`
	AffinityScore float32 `json:"affinity_score"`
	Reasoning     string  `json:"reasoning"`
}

// #endregion

// #region analysis

// Analysis is an immutable snapshot of one full profile computation.
// New computations supersede but never mutate prior snapshots.
type Analysis struct {
	UserID     string           `json:"user_id"`
	Vector     MoralVector      `json:"moral_vector"`
	Archetype  ArchetypeProfile `json:"archetype"`
	Affinities []CauseAffinity  `json:"cause_affinities"` // sorted descending by score
	AnalyzedAt time.Time        `json:"analyzed_at"`
}

// #endregion
