package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/intenza/hfeval/internal/repository/models"
)

// ItemResponse is a tester's answer for one checklist item.
type ItemResponse struct {
	Section string        `json:"section"`
	Item    string        `json:"item"`
	Result  models.Result `json:"result"`
	Note    string        `json:"note"`
}

// Submission is one completed checklist for one machine.
type Submission struct {
	Tester       string            `json:"tester"`
	MachineCode  string            `json:"machine_code"`
	Items        []ItemResponse    `json:"items"`
	SectionNotes map[string]string `json:"section_notes,omitempty"`
	Score        *int              `json:"score,omitempty"`
}

// BuildRecords turns a submission into response rows sharing one timestamp.
// Items without a Pass or NG answer are stored as Unselected.
func BuildRecords(sub Submission, timestamp string) ([]models.ResponseRecord, error) {
	tester := strings.TrimSpace(sub.Tester)
	machine := strings.TrimSpace(sub.MachineCode)
	if tester == "" {
		return nil, fmt.Errorf("%w: tester is required", ErrInvalidSubmission)
	}
	if machine == "" {
		return nil, fmt.Errorf("%w: machine code is required", ErrInvalidSubmission)
	}
	if sub.Score != nil && (*sub.Score < 1 || *sub.Score > 5) {
		return nil, fmt.Errorf("%w: score %d is outside 1-5", ErrInvalidSubmission, *sub.Score)
	}

	records := make([]models.ResponseRecord, 0, len(sub.Items)+len(sub.SectionNotes)+1)
	var sections []string
	for _, it := range sub.Items {
		result := it.Result
		if result != models.ResultPass && result != models.ResultNG {
			result = models.ResultUnselected
		}
		records = append(records, models.ResponseRecord{
			Tester:      tester,
			MachineCode: machine,
			Section:     it.Section,
			Item:        it.Item,
			Result:      result,
			Note:        it.Note,
			Timestamp:   timestamp,
		})
		if !slices.Contains(sections, it.Section) {
			sections = append(sections, it.Section)
		}
	}

	for _, section := range noteOrder(sections, sub.SectionNotes) {
		note := strings.TrimSpace(sub.SectionNotes[section])
		if note == "" {
			continue
		}
		records = append(records, models.ResponseRecord{
			Tester:      tester,
			MachineCode: machine,
			Section:     section,
			Item:        models.ItemSectionSummary,
			Result:      models.ResultNotApplicable,
			Note:        note,
			Timestamp:   timestamp,
		})
	}

	if sub.Score != nil {
		score := float64(*sub.Score)
		records = append(records, models.ResponseRecord{
			Tester:      tester,
			MachineCode: machine,
			Section:     models.SectionOverall,
			Item:        models.ItemOverallScore,
			Result:      models.ResultNotApplicable,
			Score:       &score,
			Timestamp:   timestamp,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: nothing to record", ErrInvalidSubmission)
	}
	return records, nil
}

// noteOrder lists note sections in item order, then any others by name.
func noteOrder(itemSections []string, notes map[string]string) []string {
	var out []string
	for _, s := range itemSections {
		if _, ok := notes[s]; ok {
			out = append(out, s)
		}
	}
	var rest []string
	for s := range notes {
		if !slices.Contains(out, s) {
			rest = append(rest, s)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// Submit validates a submission and appends its rows in one call.
func (s *ReportService) Submit(ctx context.Context, sub Submission) (int, error) {
	records, err := BuildRecords(sub, s.now().Format(timestampLayout))
	if err != nil {
		return 0, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.responses.Append(dbCtx, records); err != nil {
		s.logger.Error("failed to append responses",
			zap.String("tester", sub.Tester),
			zap.String("machine", sub.MachineCode),
			zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("submission stored",
		zap.String("tester", sub.Tester),
		zap.String("machine", sub.MachineCode),
		zap.Int("rows", len(records)))

	return len(records), nil
}
