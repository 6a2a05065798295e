package finding

import "encoding/json"

// Status is the verdict of a single rule.
type Status int

const (
	Satisfied Status = iota
	Missing
	Conflict
	InsufficientData
)

var statusNames = [...]string{"satisfied", "missing", "conflict", "insufficient_data"}

func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalJSON encodes the status by name so reports stay readable.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for i, n := range statusNames {
		if n == name {
			*s = Status(i)
			return nil
		}
	}
	*s = InsufficientData
	return nil
}

// Finding is one rule's outcome with supporting detail.
type Finding struct {
	RuleID string `json:"rule_id"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
	// Informational findings are reported but never flip a report verdict.
	Informational bool `json:"informational,omitempty"`
}

// Passing reports whether the finding leaves a report clean.
func (f Finding) Passing() bool {
	return f.Status == Satisfied || f.Informational
}

// ExtractedField is a located label/value pair. A nil *ExtractedField means
// the label was not found at all, which is distinct from a present value
// that fails validation.
type ExtractedField struct {
	Name             string `json:"name"`
	RawValue         string `json:"raw_value"`
	NormalizedValue  string `json:"normalized_value"`
	SourceBlockIndex int    `json:"source_block_index"`
}

func New(ruleID string, status Status, detail string) Finding {
	return Finding{RuleID: ruleID, Status: status, Detail: detail}
}

func Satisfy(ruleID, detail string) Finding { return New(ruleID, Satisfied, detail) }

func Miss(ruleID, detail string) Finding { return New(ruleID, Missing, detail) }

func Conflicting(ruleID, detail string) Finding { return New(ruleID, Conflict, detail) }

func Insufficient(ruleID, detail string) Finding { return New(ruleID, InsufficientData, detail) }
