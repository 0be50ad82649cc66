package service

import (
	"github.com/intenza/hfeval/internal/repository/models"
)

// Catalogue is a snapshot of the configured machines and questions.
type Catalogue struct {
	Machines  []models.Machine  `json:"machines"`
	Questions []models.Question `json:"questions"`
	Repairs   []string          `json:"repairs,omitempty"`
}

// MachineCodes returns the distinct machine codes in catalogue order.
func (c Catalogue) MachineCodes() []string {
	seen := make(map[string]struct{}, len(c.Machines))
	var out []string
	for _, m := range c.Machines {
		if _, ok := seen[m.Code]; ok {
			continue
		}
		seen[m.Code] = struct{}{}
		out = append(out, m.Code)
	}
	return out
}

// Series returns the distinct series names in catalogue order.
func (c Catalogue) Series() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range c.Machines {
		if _, ok := seen[m.Series]; ok {
			continue
		}
		seen[m.Series] = struct{}{}
		out = append(out, m.Series)
	}
	return out
}

// MachinesInSeries returns the machine codes of one series in catalogue order.
func (c Catalogue) MachinesInSeries(series string) []string {
	var out []string
	for _, m := range c.Machines {
		if m.Series == series {
			out = append(out, m.Code)
		}
	}
	return out
}

// HasMachine reports whether code is catalogued.
func (c Catalogue) HasMachine(code string) bool {
	for _, m := range c.Machines {
		if m.Code == code {
			return true
		}
	}
	return false
}

// Sections returns the section catalogue, or nil when no questions are configured.
func (c Catalogue) Sections() []string {
	if len(c.Questions) == 0 {
		return nil
	}
	return SectionCatalogue(c.Questions)
}

// SectionCatalogue lists question sections in first-appearance order with the
// overall assessment section appended when missing.
func SectionCatalogue(questions []models.Question) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range questions {
		if _, ok := seen[q.Section]; ok {
			continue
		}
		seen[q.Section] = struct{}{}
		out = append(out, q.Section)
	}
	return withOverall(out)
}

type SectionQuestions struct {
	Section   string   `json:"section"`
	Questions []string `json:"questions"`
}

// QuestionsForMachine groups the questions that apply to machine by section,
// keeping the order in which sections first appear.
func QuestionsForMachine(questions []models.Question, machine string) []SectionQuestions {
	var out []SectionQuestions
	idx := make(map[string]int)
	for _, q := range questions {
		if !q.AppliesTo(machine) {
			continue
		}
		i, ok := idx[q.Section]
		if !ok {
			i = len(out)
			idx[q.Section] = i
			out = append(out, SectionQuestions{Section: q.Section})
		}
		out[i].Questions = append(out[i].Questions, q.Text)
	}
	return out
}
