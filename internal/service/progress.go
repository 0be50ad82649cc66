package service

import (
	"github.com/intenza/hfeval/internal/repository/models"
)

type Progress struct {
	Series    string   `json:"series"`
	Done      int      `json:"done"`
	Total     int      `json:"total"`
	Completed []string `json:"completed"`
	Remaining []string `json:"remaining"`
}

// SeriesProgress reports which machines of a series already have an overall
// score. A blank tester counts submissions from every tester.
func SeriesProgress(responses []models.ResponseRecord, catalogue Catalogue, tester, series string) Progress {
	codes := catalogue.MachinesInSeries(series)
	p := Progress{Series: series, Total: len(codes), Completed: []string{}, Remaining: []string{}}
	if len(codes) == 0 {
		return p
	}

	scored := make(map[string]struct{})
	for _, r := range responses {
		if tester != "" && r.Tester != tester {
			continue
		}
		if r.IsOverallScore() {
			scored[r.MachineCode] = struct{}{}
		}
	}

	for _, code := range codes {
		if _, ok := scored[code]; ok {
			p.Completed = append(p.Completed, code)
		} else {
			p.Remaining = append(p.Remaining, code)
		}
	}
	p.Done = len(p.Completed)
	return p
}
