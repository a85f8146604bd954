// Package report produces the daily cross-department summaries handed to an
// external rendering collaborator. All date arithmetic happens in one fixed
// reference zone so "today" is computed consistently.
package report

import (
	"fmt"
	"strings"
	"time"

	"labcore/pkg/domain"
)

// DefaultZone is the reference time zone used when none is configured.
const DefaultZone = "Europe/Moscow"

// Lister provides read-only access to the sample collection. The sample
// store implements it.
type Lister interface {
	List() []domain.Sample
}

// Row is one department line of a summary table.
type Row struct {
	Department domain.Department
	Samples    string
}

// Table is a titled summary keyed by the fixed department enumeration.
type Table struct {
	Title string
	Rows  []Row
}

// Report is the structured daily report content: a date header and four
// tables (one per test category, plus in-work). Layout, pagination, and
// serialization belong to the rendering collaborator.
type Report struct {
	Date   string
	Tables []Table
}

// Aggregator reads the store and produces per-department summaries.
type Aggregator struct {
	samples Lister
	zone    *time.Location
	nowFn   func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.nowFn = now }
}

// New constructs an aggregator over samples using the given reference zone.
// A nil zone falls back to DefaultZone.
func New(samples Lister, zone *time.Location, opts ...Option) *Aggregator {
	if zone == nil {
		zone, _ = time.LoadLocation(DefaultZone)
	}
	a := &Aggregator{
		samples: samples,
		zone:    zone,
		nowFn:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var categoryTitles = map[domain.TestCategory]string{
	domain.CategoryMechanical:    "передано на мех испытания",
	domain.CategoryMetallurgical: "передано на металлографические исследования",
	domain.CategoryChemical:      "передано на хим анализ",
}

// TodayTransferSummary lists, per department, the samples with at least one
// test in the category whose completion date equals today in the reference
// zone. Each sample renders as "<number> (<matching test names>)"; samples
// join with "; "; departments with no matches render "-".
func (a *Aggregator) TodayTransferSummary(category domain.TestCategory) map[domain.Department]string {
	inCategory := make(map[domain.TestName]struct{})
	for _, name := range domain.TestsInCategory(category) {
		inCategory[name] = struct{}{}
	}
	today := a.nowFn().In(a.zone)
	return a.summarize(func(t domain.Test) bool {
		if _, ok := inCategory[t.Name]; !ok {
			return false
		}
		if t.CompletedAt == nil {
			return false
		}
		return sameDate(t.CompletedAt.In(a.zone), today)
	})
}

// InWorkSummary lists, per department, the samples with at least one test
// still in progress, annotated with those test names. No date filter.
func (a *Aggregator) InWorkSummary() map[domain.Department]string {
	return a.summarize(func(t domain.Test) bool {
		return t.Status == domain.StatusInProgress
	})
}

func (a *Aggregator) summarize(match func(domain.Test) bool) map[domain.Department]string {
	entries := make(map[domain.Department][]string)
	for _, sample := range a.samples.List() {
		if !sample.Department.Valid() {
			continue
		}
		var names []string
		for _, t := range sample.Tests {
			if match(t) {
				names = append(names, string(t.Name))
			}
		}
		if len(names) > 0 {
			entries[sample.Department] = append(entries[sample.Department],
				fmt.Sprintf("%s (%s)", sample.Number, strings.Join(names, ", ")))
		}
	}
	out := make(map[domain.Department]string, len(domain.Departments()))
	for _, dept := range domain.Departments() {
		if items := entries[dept]; len(items) > 0 {
			out[dept] = strings.Join(items, "; ")
		} else {
			out[dept] = "-"
		}
	}
	return out
}

// Generate assembles the dated report: the three category transfer tables
// followed by the in-work table, each ordered by the fixed department
// enumeration.
func (a *Aggregator) Generate() Report {
	rep := Report{Date: a.nowFn().In(a.zone).Format("02.01.2006")}
	for _, cat := range domain.Categories() {
		rep.Tables = append(rep.Tables, tableFrom(categoryTitles[cat], a.TodayTransferSummary(cat)))
	}
	rep.Tables = append(rep.Tables, tableFrom("в работе", a.InWorkSummary()))
	return rep
}

func tableFrom(title string, summary map[domain.Department]string) Table {
	table := Table{Title: title}
	for _, dept := range domain.Departments() {
		table.Rows = append(table.Rows, Row{Department: dept, Samples: summary[dept]})
	}
	return table
}

// sameDate reports whether the two instants share a calendar date. Both
// must already be in the reference zone.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
