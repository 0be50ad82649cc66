package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/intenza/hfeval/internal/repository/models"
)

// Column names shared by the stores and the normalizer.
const (
	ColTester      = "tester"
	ColMachineCode = "machine_code"
	ColSection     = "section"
	ColItem        = "item"
	ColResult      = "result"
	ColNote        = "note"
	ColScore       = "score"
	ColTimestamp   = "created_at"

	ColSeries     = "series_name"
	ColQuestion   = "question"
	ColApplicable = "applicable_machine_codes"
)

const DefaultCategory = "Uncategorized"

var ResponsesSchema = Schema{
	Name: "responses",
	Columns: []Column{
		{Name: ColTester}, {Name: ColMachineCode}, {Name: ColSection}, {Name: ColItem},
		{Name: ColResult}, {Name: ColNote}, {Name: ColScore}, {Name: ColTimestamp},
	},
	HeaderTokens: []string{ColItem, ColSection, ColScore},
	DefaultHeader: []string{
		ColTester, ColMachineCode, ColSection, ColItem, ColResult, ColNote, ColScore, ColTimestamp,
	},
}

// Column names and sentinels of the legacy spreadsheet export.
const (
	LegacyColTester      = "測試者"
	LegacyColMachineCode = "機器代碼"
	LegacyColSection     = "區塊"
	LegacyColItem        = "項目"
	LegacyColResult      = "Pass/NG"
	LegacyColNote        = "Note"
	LegacyColScore       = "分數"
	LegacyColTimestamp   = "日期時間"

	LegacySectionOverall   = "整體評估"
	LegacyItemOverallScore = "整體評分"
)

// LegacyResponsesSchema reads the legacy export. Its columns are renamed onto
// the ResponsesSchema names, so ToResponses applies to the result.
var LegacyResponsesSchema = Schema{
	Name:         "legacy responses",
	Columns:      ResponsesSchema.Columns,
	HeaderTokens: []string{LegacyColItem, LegacyColSection, LegacyColScore},
	DefaultHeader: []string{
		LegacyColTester, LegacyColMachineCode, LegacyColSection, LegacyColItem,
		LegacyColResult, LegacyColNote, LegacyColScore, LegacyColTimestamp,
	},
	Aliases: map[string]string{
		LegacyColTester:      ColTester,
		LegacyColMachineCode: ColMachineCode,
		LegacyColSection:     ColSection,
		LegacyColItem:        ColItem,
		LegacyColResult:      ColResult,
		LegacyColNote:        ColNote,
		LegacyColScore:       ColScore,
		LegacyColTimestamp:   ColTimestamp,
	},
}

var legacySentinels = map[string]string{
	LegacySectionOverall:   models.SectionOverall,
	LegacyItemOverallScore: models.ItemOverallScore,
}

var MachinesSchema = Schema{
	Name: "machines",
	Columns: []Column{
		{Name: ColSeries, Default: DefaultCategory},
		{Name: ColMachineCode},
	},
	HeaderTokens:  []string{ColSeries, ColMachineCode},
	DefaultHeader: []string{ColSeries, ColMachineCode},
}

var QuestionsSchema = Schema{
	Name: "questions",
	Columns: []Column{
		{Name: ColSection, Default: DefaultCategory},
		{Name: ColQuestion},
		{Name: ColApplicable},
	},
	HeaderTokens:  []string{ColSection, ColQuestion},
	DefaultHeader: []string{ColSection, ColQuestion, ColApplicable},
}

// ToResponses adapts a normalized responses table into typed records.
// Scores that are not numeric are dropped rather than read as zero.
func ToResponses(t Table) []models.ResponseRecord {
	out := make([]models.ResponseRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, models.ResponseRecord{
			Tester:      strings.TrimSpace(row[ColTester]),
			MachineCode: strings.TrimSpace(row[ColMachineCode]),
			Section:     canonical(row[ColSection]),
			Item:        canonical(row[ColItem]),
			Result:      models.ParseResult(row[ColResult]),
			Note:        row[ColNote],
			Score:       ParseScore(row[ColScore]),
			Timestamp:   row[ColTimestamp],
		})
	}
	return out
}

// canonical maps a legacy section or item sentinel onto its current name.
func canonical(s string) string {
	if v, ok := legacySentinels[strings.TrimSpace(s)]; ok {
		return v
	}
	return s
}

// WithoutBlankMachines drops records that carry no machine code and returns
// how many were dropped.
func WithoutBlankMachines(records []models.ResponseRecord) ([]models.ResponseRecord, int) {
	out := make([]models.ResponseRecord, 0, len(records))
	for _, r := range records {
		if r.MachineCode != "" {
			out = append(out, r)
		}
	}
	return out, len(records) - len(out)
}

// ToMachines adapts a normalized machines table, skipping rows without a code.
func ToMachines(t Table) []models.Machine {
	out := make([]models.Machine, 0, len(t.Rows))
	for _, row := range t.Rows {
		code := strings.TrimSpace(row[ColMachineCode])
		if code == "" {
			continue
		}
		out = append(out, models.Machine{Series: row[ColSeries], Code: code})
	}
	return out
}

// ToQuestions adapts a normalized questions table, skipping rows without text.
func ToQuestions(t Table) []models.Question {
	out := make([]models.Question, 0, len(t.Rows))
	for _, row := range t.Rows {
		text := strings.TrimSpace(row[ColQuestion])
		if text == "" {
			continue
		}
		out = append(out, models.Question{
			Section:            row[ColSection],
			Text:               text,
			ApplicableMachines: splitCodes(row[ColApplicable]),
		})
	}
	return out
}

// ParseScore returns nil for blank, non-numeric or non-finite text.
func ParseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func splitCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
