package v1

// Answer is the result and note of one checklist item. A blank Result leaves
// the stored result untouched on session updates; so does a nil Note.
type Answer struct {
	Section string  `json:"section"`
	Item    string  `json:"item"`
	Result  string  `json:"result,omitempty"`
	Note    *string `json:"note,omitempty"`
}

type ReportRequest struct {
	IncludeFacts bool `json:"include_facts,omitempty"`
}

type ReportRow struct {
	Section string   `json:"section"`
	Metric  string   `json:"metric"`
	Values  []string `json:"values"`
}

type Fact struct {
	Section string `json:"section"`
	Metric  string `json:"metric"`
	Machine string `json:"machine"`
	Value   string `json:"value"`
}

type DigestEntry struct {
	Key     string `json:"key"`
	Item    string `json:"item"`
	Machine string `json:"machine"`
	Count   int    `json:"count"`
	Notes   string `json:"notes"`
}

type MachineScore struct {
	Machine string  `json:"machine"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type ReportResponse struct {
	Machines    []string       `json:"machines"`
	Sections    []string       `json:"sections"`
	Rows        []ReportRow    `json:"rows"`
	Digest      []DigestEntry  `json:"digest,omitempty"`
	Scores      []MachineScore `json:"scores,omitempty"`
	Facts       []Fact         `json:"facts,omitempty"`
	Repairs     []string       `json:"repairs,omitempty"`
	GeneratedAt string         `json:"generated_at"`
}

// Records returns the report table with a header row.
func (r *ReportResponse) Records() [][]string {
	out := make([][]string, 0, len(r.Rows)+1)
	out = append(out, append([]string{"Section", "Metric"}, r.Machines...))
	for _, row := range r.Rows {
		out = append(out, append([]string{row.Section, row.Metric}, row.Values...))
	}
	return out
}

type MachineQuestionsRequest struct {
	MachineCode string `json:"machine_code"`
}

type SectionQuestions struct {
	Section   string   `json:"section"`
	Questions []string `json:"questions"`
}

type MachineQuestionsResponse struct {
	MachineCode string             `json:"machine_code"`
	Sections    []SectionQuestions `json:"sections"`
}

type SeriesProgressRequest struct {
	Tester string `json:"tester,omitempty"`
	Series string `json:"series"`
}

type SeriesProgressResponse struct {
	Series    string   `json:"series"`
	Done      int      `json:"done"`
	Total     int      `json:"total"`
	Completed []string `json:"completed"`
	Remaining []string `json:"remaining"`
}

type ReloadCatalogueRequest struct{}

type ReloadCatalogueResponse struct {
	Series    []string `json:"series"`
	Machines  int      `json:"machines"`
	Questions int      `json:"questions"`
	Repairs   []string `json:"repairs,omitempty"`
}

type StartSessionRequest struct {
	Tester string `json:"tester"`
	Series string `json:"series"`
	Mode   string `json:"mode,omitempty"`
}

type UpdateSessionRequest struct {
	SessionID    string            `json:"session_id"`
	Machine      string            `json:"machine,omitempty"`
	Answers      []Answer          `json:"answers,omitempty"`
	SectionNotes map[string]string `json:"section_notes,omitempty"`
	Score        *int              `json:"score,omitempty"`
	ClearScore   bool              `json:"clear_score,omitempty"`
}

type SubmitSessionRequest struct {
	SessionID string `json:"session_id"`
}

type Session struct {
	ID           string            `json:"id"`
	Tester       string            `json:"tester"`
	Series       string            `json:"series"`
	Mode         string            `json:"mode"`
	Machine      string            `json:"machine,omitempty"`
	Answers      []Answer          `json:"answers,omitempty"`
	SectionNotes map[string]string `json:"section_notes,omitempty"`
	Score        *int              `json:"score,omitempty"`
	Submitted    int               `json:"submitted"`
	Done         bool              `json:"done"`
}

type SessionResponse struct {
	Session  Session            `json:"session"`
	Sections []SectionQuestions `json:"sections,omitempty"`
}

type SubmitEvaluationRequest struct {
	Tester       string            `json:"tester"`
	MachineCode  string            `json:"machine_code"`
	Items        []Answer          `json:"items"`
	SectionNotes map[string]string `json:"section_notes,omitempty"`
	Score        *int              `json:"score,omitempty"`
}

type SubmitResponse struct {
	Rows    int      `json:"rows"`
	Session *Session `json:"session,omitempty"`
}
