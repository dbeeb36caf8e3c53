package profile

// #region imports
import (
	"math/rand"
	"time"
)

// #endregion

// #region engine

// Engine infers a donor's moral vector, behavioral archetype, and ranked
// cause affinities from questionnaire responses. All operations are pure
// and error-free: sparse or unmatched input degrades to zero/empty output.
type Engine struct {
	baselineCauses int
	rng            *rand.Rand
	now            func() time.Time
}

// defaultBaselineCauses is how many zero-match causes the deterministic
// baseline policy keeps.
const defaultBaselineCauses = 2

// NewEngine creates an engine with the deterministic baseline policy.
func NewEngine() *Engine {
	return &Engine{baselineCauses: defaultBaselineCauses, now: time.Now}
}

// Option configures an Engine.
type Option func(*Engine)

// WithBaselineCauses sets how many zero-match causes are kept as baseline.
func WithBaselineCauses(n int) Option {
	return func(e *Engine) { e.baselineCauses = n }
}

// WithSeededSampling reinstates the sampled 50% baseline inclusion from a
// seeded source. Use for parity experiments only; the deterministic policy
// is the default.
func WithSeededSampling(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock overrides the snapshot timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngineWith creates an engine with the given options applied.
func NewEngineWith(opts ...Option) *Engine {
	e := NewEngine()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// #endregion

// #region operations

// CalculateMoralVector is the engine-scoped entry to the pure computation.
func (e *Engine) CalculateMoralVector(responses []Response) MoralVector {
	return CalculateMoralVector(responses)
}

// InferArchetype is the engine-scoped entry to the pure computation.
func (e *Engine) InferArchetype(responses []Response, vector MoralVector) ArchetypeProfile {
	return InferArchetype(responses, vector)
}

// InferCauseAffinities ranks cause affinities under the engine's baseline
// policy.
func (e *Engine) InferCauseAffinities(responses []Response) []CauseAffinity {
	return inferCauseAffinities(responses, e.baselineCauses, e.rng)
}

// AnalyzeResponses composes the three inferences into a single immutable
// snapshot stamped with the current time.
func (e *Engine) AnalyzeResponses(userID string, responses []Response) Analysis {
	vector := e.CalculateMoralVector(responses)
	return Analysis{
		UserID:     userID,
		Vector:     vector,
		Archetype:  e.InferArchetype(responses, vector),
		Affinities: e.InferCauseAffinities(responses),
		AnalyzedAt: e.now().UTC(),
	}
}

// #endregion
