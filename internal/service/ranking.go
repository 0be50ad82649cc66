package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/intenza/hfeval/internal/repository/models"
)

// NGGroup counts the NG results of one (machine, section, item).
type NGGroup struct {
	Machine string `json:"machine"`
	Section string `json:"section"`
	Item    string `json:"item"`
	Count   int    `json:"count"`
	Notes   string `json:"notes"`
}

// NGOrder compares two groups of the same machine; negative means a ranks first.
type NGOrder func(a, b NGGroup) int

// ByCountThenNoteLength ranks by NG count, then by merged note length, both
// descending. Remaining ties fall back to section and item name.
func ByCountThenNoteLength(a, b NGGroup) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(utf8.RuneCountInString(b.Notes), utf8.RuneCountInString(a.Notes)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Section, b.Section); c != 0 {
		return c
	}
	return cmp.Compare(a.Item, b.Item)
}

type Options struct {
	ngOrder NGOrder
}

type Option func(*Options)

// WithNGOrder replaces the ranking used for NG facts.
func WithNGOrder(order NGOrder) Option {
	return func(o *Options) {
		if order != nil {
			o.ngOrder = order
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{ngOrder: ByCountThenNoteLength}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GroupNG groups the NG responses by (machine, section, item), ordered by key.
// Notes are the distinct non-empty NG notes of the group, sorted and joined.
func GroupNG(responses []models.ResponseRecord) []NGGroup {
	type key struct{ machine, section, item string }

	counts := make(map[key]int)
	notes := make(map[key]map[string]struct{})
	for _, r := range responses {
		if r.Result != models.ResultNG {
			continue
		}
		k := key{r.MachineCode, r.Section, r.Item}
		counts[k]++
		if notes[k] == nil {
			notes[k] = make(map[string]struct{})
		}
		if n := strings.TrimSpace(r.Note); n != "" {
			notes[k][n] = struct{}{}
		}
	}

	groups := make([]NGGroup, 0, len(counts))
	for k, c := range counts {
		groups = append(groups, NGGroup{
			Machine: k.machine,
			Section: k.section,
			Item:    k.item,
			Count:   c,
			Notes:   joinSorted(notes[k]),
		})
	}
	slices.SortFunc(groups, func(a, b NGGroup) int {
		return cmp.Or(
			cmp.Compare(a.Machine, b.Machine),
			cmp.Compare(a.Section, b.Section),
			cmp.Compare(a.Item, b.Item),
		)
	})
	return groups
}

// RankNG emits one "<n> times" fact per NG group, machines in the given order
// and each machine's groups ranked by the configured NGOrder.
func RankNG(responses []models.ResponseRecord, machines []string, opts ...Option) []Fact {
	groups := GroupNG(responses)
	if len(groups) == 0 {
		return nil
	}
	if len(machines) == 0 {
		machines = DeriveMachines(responses)
	}
	o := buildOptions(opts)

	byMachine := make(map[string][]NGGroup)
	for _, g := range groups {
		byMachine[g.Machine] = append(byMachine[g.Machine], g)
	}

	var facts []Fact
	for _, machine := range machines {
		ranked := byMachine[machine]
		slices.SortStableFunc(ranked, o.ngOrder)
		for _, g := range ranked {
			facts = append(facts, Fact{
				Section: NGSection(g.Section),
				Metric:  g.Item,
				Machine: machine,
				Value:   fmt.Sprintf("%d times", g.Count),
			})
		}
	}
	return facts
}

// NGDigestEntry is one bar of the failure ranking chart.
type NGDigestEntry struct {
	Key     string `json:"key"`
	Item    string `json:"item"`
	Machine string `json:"machine"`
	Count   int    `json:"count"`
	Notes   string `json:"notes"`
}

// DigestNG flattens NG counts per (item, machine) across sections. Notes are
// merged from every response of that item and machine, not only the NG ones.
func DigestNG(responses []models.ResponseRecord) []NGDigestEntry {
	type key struct{ machine, item string }

	counts := make(map[key]int)
	for _, r := range responses {
		if r.Result == models.ResultNG {
			counts[key{r.MachineCode, r.Item}]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	notes := make(map[key]map[string]struct{})
	for _, r := range responses {
		k := key{r.MachineCode, r.Item}
		if _, ok := counts[k]; !ok {
			continue
		}
		if notes[k] == nil {
			notes[k] = make(map[string]struct{})
		}
		if n := strings.TrimSpace(r.Note); n != "" {
			notes[k][n] = struct{}{}
		}
	}

	out := make([]NGDigestEntry, 0, len(counts))
	for k, c := range counts {
		out = append(out, NGDigestEntry{
			Key:     DigestKey(k.item, k.machine),
			Item:    k.item,
			Machine: k.machine,
			Count:   c,
			Notes:   joinSorted(notes[k]),
		})
	}
	slices.SortFunc(out, func(a, b NGDigestEntry) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(utf8.RuneCountInString(b.Notes), utf8.RuneCountInString(a.Notes)),
			cmp.Compare(a.Key, b.Key),
		)
	})
	return out
}

// DigestKey is the display key of a digest entry.
func DigestKey(item, machine string) string {
	return item + " | " + machine
}

func joinSorted(set map[string]struct{}) string {
	if len(set) == 0 {
		return ""
	}
	vals := make([]string, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	slices.Sort(vals)
	return strings.Join(vals, noteSeparator)
}

// BuildFacts returns the summary facts of every machine followed by the NG
// ranking facts.
func BuildFacts(responses []models.ResponseRecord, machines, sections []string, opts ...Option) []Fact {
	facts := Summarize(responses, machines, sections)
	return append(facts, RankNG(responses, machines, opts...)...)
}
