package escrow

// RejectReason identifies why a call left the record unchanged. Reasons are
// internal bookkeeping for callers, metrics and tests; they are never
// surfaced as errors because a business-rule rejection is not a failure of
// the invocation.
type RejectReason string

const (
	ReasonNone             RejectReason = ""
	ReasonOracleAlreadySet RejectReason = "oracle_already_set"
	ReasonOracleUnset      RejectReason = "oracle_unset"
	ReasonAlreadyFunded    RejectReason = "already_funded"
	ReasonAlreadyResolved  RejectReason = "already_resolved"
	ReasonInvalidAmount    RejectReason = "invalid_amount"
	ReasonInvalidScore     RejectReason = "invalid_score"
	ReasonNotOracle        RejectReason = "caller_not_oracle"
	ReasonAlreadyVerified  RejectReason = "already_verified"
	ReasonNotActive        RejectReason = "not_active"
	ReasonNotVerified      RejectReason = "not_verified"
	ReasonScoreBelowBar    RejectReason = "score_below_threshold"
	ReasonScoreMeetsBar    RejectReason = "score_meets_threshold"
	ReasonRetentionPending RejectReason = "retention_pending"
)

// Outcome reports whether a call applied its effect. Rejected outcomes carry
// the reason the preconditions did not hold; the record is guaranteed
// unchanged in that case.
type Outcome struct {
	Applied bool
	Reason  RejectReason
}

func applied() Outcome {
	return Outcome{Applied: true}
}

func rejected(reason RejectReason) Outcome {
	return Outcome{Reason: reason}
}
