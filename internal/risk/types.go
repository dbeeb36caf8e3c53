package risk

// #region assessment

// Assessment holds the four scored risk dimensions plus compliance checks.
// Every dimension and the aggregate lie in [0,1].
type Assessment struct {
	MarketRisk      float32          `json:"market_risk"`
	CreditRisk      float32          `json:"credit_risk"`
	LiquidityRisk   float32          `json:"liquidity_risk"`
	OperationalRisk float32          `json:"operational_risk"`
	AggregateRisk   float32          `json:"aggregate_risk"`
	Compliance      ComplianceChecks `json:"compliance_checks"`
}

// #endregion

// #region compliance

// ComplianceChecks are the three boolean policy gates.
type ComplianceChecks struct {
	ConcentrationLimit   bool `json:"concentration_limit"`
	SectorLimit          bool `json:"sector_limit"`
	LiquidityRequirement bool `json:"liquidity_requirement"`
}

// AllPass reports whether every compliance check passed.
func (c ComplianceChecks) AllPass() bool {
	return c.ConcentrationLimit && c.SectorLimit && c.LiquidityRequirement
}

// #endregion

// #region result

// Result is the evaluator's verdict with ordered human-readable reasoning.
type Result struct {
	Approved   bool       `json:"approved"`
	Assessment Assessment `json:"assessment"`
	Reasoning  []string   `json:"reasoning"`
}

// #endregion

// #region thresholds

// Aggregate weights and verdict/reasoning thresholds. Exact contract.
const (
	weightMarket      = 0.30
	weightCredit      = 0.25
	weightLiquidity   = 0.30
	weightOperational = 0.15

	approvalCeiling = 0.40

	marketReasonThreshold    = 0.40
	creditReasonThreshold    = 0.30
	liquidityReasonThreshold = 0.35

	concentrationCeiling = 0.30
	liquidityFloor       = 0.20
)

// #endregion
