// Package session holds the state of a tester filling in checklists, one
// machine after another, between requests.
package session

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/intenza/hfeval/internal/service"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrNoMachine   = errors.New("no machine selected")
	ErrSeriesDone  = errors.New("series already completed")
	ErrInvalidMode = errors.New("invalid fill mode")
)

// FillMode decides how the next machine is chosen.
type FillMode string

const (
	// FillSequential walks the machines of the series in catalogue order.
	FillSequential FillMode = "sequential"
	// FillFree lets the tester pick any machine of the series.
	FillFree FillMode = "free"
)

// ParseFillMode accepts the known modes; blank means sequential.
func ParseFillMode(s string) (FillMode, error) {
	switch FillMode(s) {
	case "", FillSequential:
		return FillSequential, nil
	case FillFree:
		return FillFree, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// State is everything needed to resume a tester's form.
type State struct {
	ID           string                 `json:"id"`
	Tester       string                 `json:"tester"`
	Series       string                 `json:"series"`
	Mode         FillMode               `json:"mode"`
	MachineIndex int                    `json:"machine_index"`
	Machine      string                 `json:"machine,omitempty"`
	Answers      []service.ItemResponse `json:"answers,omitempty"`
	SectionNotes map[string]string      `json:"section_notes,omitempty"`
	Score        *int                   `json:"score,omitempty"`
	Submitted    int                    `json:"submitted"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// CurrentMachine returns the machine being filled in, or "" when there is none.
// codes are the machine codes of the series in catalogue order.
func (s *State) CurrentMachine(codes []string) string {
	if s.Mode == FillFree {
		if slices.Contains(codes, s.Machine) {
			return s.Machine
		}
		return ""
	}
	if s.MachineIndex < 0 || s.MachineIndex >= len(codes) {
		return ""
	}
	return codes[s.MachineIndex]
}

// Done reports whether a sequential walk has passed the last machine.
func (s *State) Done(codes []string) bool {
	return s.Mode != FillFree && s.MachineIndex >= len(codes)
}

// Choose picks the machine in free mode and jumps to it in sequential mode.
func (s *State) Choose(code string, codes []string) error {
	i := slices.Index(codes, code)
	if i < 0 {
		return fmt.Errorf("%w: %q is not in series %q", ErrNoMachine, code, s.Series)
	}
	if code != s.CurrentMachine(codes) {
		s.clearForm()
	}
	s.Machine = code
	s.MachineIndex = i
	return nil
}

// Select records the result of one item, keeping any note already written.
func (s *State) Select(section, item string, result models.Result) {
	a := s.answer(section, item)
	a.Result = result
}

// SetNote records the note of one item, keeping its result.
func (s *State) SetNote(section, item, note string) {
	a := s.answer(section, item)
	a.Note = note
}

func (s *State) SetSectionNote(section, note string) {
	if s.SectionNotes == nil {
		s.SectionNotes = make(map[string]string)
	}
	s.SectionNotes[section] = note
}

// SetScore records the overall score. Nil clears it.
func (s *State) SetScore(score *int) error {
	if score != nil && (*score < 1 || *score > 5) {
		return fmt.Errorf("%w: score %d is outside 1-5", service.ErrInvalidSubmission, *score)
	}
	s.Score = score
	return nil
}

func (s *State) answer(section, item string) *service.ItemResponse {
	for i := range s.Answers {
		if s.Answers[i].Section == section && s.Answers[i].Item == item {
			return &s.Answers[i]
		}
	}
	s.Answers = append(s.Answers, service.ItemResponse{Section: section, Item: item, Result: models.ResultUnselected})
	return &s.Answers[len(s.Answers)-1]
}

// ToSubmission builds the submission for the current machine.
func (s *State) ToSubmission(codes []string) (service.Submission, error) {
	machine := s.CurrentMachine(codes)
	if machine == "" {
		if s.Done(codes) {
			return service.Submission{}, ErrSeriesDone
		}
		return service.Submission{}, ErrNoMachine
	}
	var notes map[string]string
	if len(s.SectionNotes) > 0 {
		notes = make(map[string]string, len(s.SectionNotes))
		for k, v := range s.SectionNotes {
			notes[k] = v
		}
	}
	var score *int
	if s.Score != nil {
		v := *s.Score
		score = &v
	}
	return service.Submission{
		Tester:       s.Tester,
		MachineCode:  machine,
		Items:        slices.Clone(s.Answers),
		SectionNotes: notes,
		Score:        score,
	}, nil
}

// Advance clears the form after a submission and moves to the next machine.
// In free mode the tester stays on the chosen machine. It returns false once a
// sequential walk has no machine left.
func (s *State) Advance(codes []string) bool {
	s.clearForm()
	s.Submitted++
	if s.Mode == FillFree {
		return true
	}
	s.MachineIndex++
	if s.MachineIndex >= len(codes) {
		s.MachineIndex = len(codes)
		s.Machine = ""
		return false
	}
	s.Machine = codes[s.MachineIndex]
	return true
}

func (s *State) clearForm() {
	s.Answers = nil
	s.SectionNotes = nil
	s.Score = nil
}
