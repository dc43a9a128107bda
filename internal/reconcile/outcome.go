package reconcile

// Outcome reports what reconciling one destination did.
type Outcome struct {
	Mutated bool `json:"mutated"`
	Errored bool `json:"errored"`
}

// Merge folds other into o.
func (o Outcome) Merge(other Outcome) Outcome {
	return Outcome{
		Mutated: o.Mutated || other.Mutated,
		Errored: o.Errored || other.Errored,
	}
}

// Unsettled reports whether the table should be re-checked soon.
func (o Outcome) Unsettled() bool {
	return o.Mutated || o.Errored
}

// Label names the outcome for metrics.
func (o Outcome) Label() string {
	switch {
	case o.Errored:
		return "errored"
	case o.Mutated:
		return "mutated"
	default:
		return "steady"
	}
}
