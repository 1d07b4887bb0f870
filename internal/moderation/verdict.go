package moderation

// Intent is the classifier's reading of what the child is trying to do.
type Intent string

const (
	IntentGood Intent = "good"
	IntentBad  Intent = "bad"
)

// Category names the kind of risk a conversation was flagged for.
type Category string

const (
	CategoryWeapons    Category = "weapons"
	CategoryHarassment Category = "harassment"
	CategorySelfHarm   Category = "self_harm"
	CategorySexual     Category = "sexual"
	CategoryDrugs      Category = "drugs"
	CategoryHacking    Category = "hacking"
	CategoryPII        Category = "pii"
	CategoryOther      Category = "other"
)

// Categories lists every category in the order the grader is told about them.
var Categories = []Category{
	CategoryWeapons,
	CategoryHarassment,
	CategorySelfHarm,
	CategorySexual,
	CategoryDrugs,
	CategoryHacking,
	CategoryPII,
	CategoryOther,
}

// Verdict is the safety classification produced for one request.
type Verdict struct {
	Intent    Intent   `json:"intent"`
	MustBlock bool     `json:"must_block"`
	Category  Category `json:"category"`
	Severity  float64  `json:"severity"`
	Reasons   []string `json:"reasons"`
}

// Unsafe reports whether the conversation has to be steered to a clarifying
// question instead of answered.
func (v Verdict) Unsafe() bool {
	return v.MustBlock || v.Intent == IntentBad
}

// rawVerdict is the grader output as decoded. Every field is optional; the
// defaults applied by normalize are part of the contract.
type rawVerdict struct {
	Intent    *Intent   `json:"intent"`
	MustBlock *bool     `json:"must_block"`
	Category  *Category `json:"category"`
	Severity  *float64  `json:"severity"`
	Reasons   []string  `json:"reasons"`
}

func (r rawVerdict) normalize() Verdict {
	v := Verdict{
		Intent:   IntentGood,
		Category: CategoryOther,
		Reasons:  []string{},
	}
	if r.Intent != nil {
		v.Intent = *r.Intent
	}
	if r.MustBlock != nil {
		v.MustBlock = *r.MustBlock
	}
	if r.Category != nil {
		v.Category = *r.Category
	}
	if r.Severity != nil {
		v.Severity = min(max(*r.Severity, 0), 1)
	}
	if r.Reasons != nil {
		v.Reasons = r.Reasons
	}
	return v
}
