package service

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/intenza/hfeval/internal/repository/models"
)

// Metric names used in report facts.
const (
	MetricPassRate    = "Pass Rate (%)"
	MetricTotalScore  = "Total Score"
	MetricSectionNote = models.ItemSectionSummary

	NotAvailable = "N/A"

	ngSectionPrefix = "NG Count: "
	noteSeparator   = "; "
)

// Fact is one computed cell of the report: the value of (Section, Metric) for Machine.
// NG facts use "NG Count: <section>" as Section and the item as Metric.
type Fact struct {
	Section string `json:"section"`
	Metric  string `json:"metric"`
	Machine string `json:"machine"`
	Value   string `json:"value"`
}

// NGSection returns the report section under which NG counts for section are listed.
func NGSection(section string) string {
	return ngSectionPrefix + section
}

// Summarize computes pass rates, section notes and the average overall score
// per machine. Sections without responses for a machine produce no facts.
// Empty machine or section lists are derived from the responses.
func Summarize(responses []models.ResponseRecord, machines, sections []string) []Fact {
	if len(responses) == 0 {
		return nil
	}
	if len(machines) == 0 {
		machines = DeriveMachines(responses)
	}
	if len(sections) == 0 {
		sections = DeriveSections(responses)
	}

	byMachine := indexByMachine(responses)

	var facts []Fact
	for _, machine := range machines {
		rows := byMachine[machine]

		bySection := make(map[string][]models.ResponseRecord)
		for _, r := range rows {
			bySection[r.Section] = append(bySection[r.Section], r)
		}

		for _, section := range sections {
			subset := bySection[section]
			if len(subset) == 0 {
				continue
			}

			facts = append(facts, Fact{
				Section: section,
				Metric:  MetricPassRate,
				Machine: machine,
				Value:   passRate(subset),
			})

			if note := sectionNote(subset); note != "" {
				facts = append(facts, Fact{
					Section: section,
					Metric:  MetricSectionNote,
					Machine: machine,
					Value:   note,
				})
			}
		}

		facts = append(facts, Fact{
			Section: models.SectionOverall,
			Metric:  MetricTotalScore,
			Machine: machine,
			Value:   averageScore(rows),
		})
	}
	return facts
}

func passRate(rows []models.ResponseRecord) string {
	var pass, ng int
	for _, r := range rows {
		switch r.Result {
		case models.ResultPass:
			pass++
		case models.ResultNG:
			ng++
		}
	}
	total := pass + ng
	if total == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f%%", float64(pass)/float64(total)*100)
}

func averageScore(rows []models.ResponseRecord) string {
	scores := overallScores(rows)
	if len(scores) == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f", stat.Mean(scores, nil))
}

func overallScores(rows []models.ResponseRecord) []float64 {
	var scores []float64
	for _, r := range rows {
		if r.IsOverallScore() && r.Score != nil {
			scores = append(scores, *r.Score)
		}
	}
	return scores
}

// sectionNote joins the non-empty summary notes of a section. Notes are
// prefixed with their tester when more than one tester wrote one.
func sectionNote(rows []models.ResponseRecord) string {
	var notes []models.ResponseRecord
	testers := make(map[string]struct{})
	for _, r := range rows {
		if r.Item != models.ItemSectionSummary || strings.TrimSpace(r.Note) == "" {
			continue
		}
		notes = append(notes, r)
		testers[r.Tester] = struct{}{}
	}
	if len(notes) == 0 {
		return ""
	}

	parts := make([]string, len(notes))
	for i, r := range notes {
		note := strings.TrimSpace(r.Note)
		if len(testers) > 1 {
			note = r.Tester + ": " + note
		}
		parts[i] = note
	}
	return strings.Join(parts, noteSeparator)
}

func indexByMachine(responses []models.ResponseRecord) map[string][]models.ResponseRecord {
	idx := make(map[string][]models.ResponseRecord)
	for _, r := range responses {
		idx[r.MachineCode] = append(idx[r.MachineCode], r)
	}
	return idx
}

// DeriveMachines lists the distinct machine codes in the responses, sorted.
func DeriveMachines(responses []models.ResponseRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range responses {
		if r.MachineCode == "" {
			continue
		}
		if _, ok := seen[r.MachineCode]; ok {
			continue
		}
		seen[r.MachineCode] = struct{}{}
		out = append(out, r.MachineCode)
	}
	slices.Sort(out)
	return out
}

// DeriveSections lists the distinct sections in the responses, sorted, with
// the overall assessment section last.
func DeriveSections(responses []models.ResponseRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range responses {
		if r.Section == "" {
			continue
		}
		if _, ok := seen[r.Section]; ok {
			continue
		}
		seen[r.Section] = struct{}{}
		out = append(out, r.Section)
	}
	slices.Sort(out)
	return withOverall(out)
}

func withOverall(sections []string) []string {
	if slices.Contains(sections, models.SectionOverall) {
		return sections
	}
	return append(sections, models.SectionOverall)
}
