package models

import "strings"

// Result is the outcome recorded for a single checklist item.
type Result string

const (
	ResultPass          Result = "Pass"
	ResultNG            Result = "NG"
	ResultUnselected    Result = "Unselected"
	ResultNotApplicable Result = "N/A"
)

const (
	SectionOverall     = "Overall Assessment"
	ItemOverallScore   = "Overall Score"
	ItemSectionSummary = "Section Summary Note"
)

// ParseResult maps stored text onto a Result. Blank or unknown values are
// treated as Unselected so they never count towards a pass rate.
func ParseResult(s string) Result {
	switch strings.TrimSpace(s) {
	case string(ResultPass):
		return ResultPass
	case string(ResultNG):
		return ResultNG
	case string(ResultNotApplicable), "NotApplicable":
		return ResultNotApplicable
	default:
		return ResultUnselected
	}
}

// ResponseRecord is one evaluation event for (tester, machine, section, item).
type ResponseRecord struct {
	Tester      string   `json:"tester"`
	MachineCode string   `json:"machine_code"`
	Section     string   `json:"section"`
	Item        string   `json:"item"`
	Result      Result   `json:"result"`
	Note        string   `json:"note"`
	Score       *float64 `json:"score,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

// IsOverallScore reports whether the record carries a machine's overall rating.
func (r ResponseRecord) IsOverallScore() bool {
	return r.Item == ItemOverallScore
}

type Machine struct {
	Series string `json:"series"`
	Code   string `json:"code"`
}

type Question struct {
	Section            string   `json:"section"`
	Text               string   `json:"text"`
	ApplicableMachines []string `json:"applicable_machines,omitempty"`
}

// AppliesTo reports whether the question is asked for the given machine.
// An empty applicability list means every machine.
func (q Question) AppliesTo(machine string) bool {
	if len(q.ApplicableMachines) == 0 {
		return true
	}
	for _, code := range q.ApplicableMachines {
		if code == machine {
			return true
		}
	}
	return false
}
