package rubric

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Category indices into Report.Categories. The order is fixed so
// reports always print the same way.
const (
	catSecurity = iota
	catErrorHandling
	catDataManagement
	catArchitecture
	catBestPractices
)

type Category struct {
	Name   string
	Score  int
	Max    int
	Issues []string
}

// Report is a graded integration file. Maxes always sum to 100.
type Report struct {
	File       string
	Categories []Category
}

func newReport(file string) *Report {
	return &Report{
		File: file,
		Categories: []Category{
			{Name: "Security", Max: 25},
			{Name: "Error Handling", Max: 25},
			{Name: "Data Management", Max: 20},
			{Name: "Architecture", Max: 20},
			{Name: "Best Practices", Max: 10},
		},
	}
}

func (r *Report) add(cat, points int) {
	r.Categories[cat].Score += points
}

func (r *Report) flag(cat int, issue string) {
	r.Categories[cat].Issues = append(r.Categories[cat].Issues, issue)
}

func (r *Report) grant(cat int) {
	r.Categories[cat].Score = r.Categories[cat].Max
}

func (r *Report) Total() int {
	var total int
	for _, c := range r.Categories {
		total += c.Score
	}
	return total
}

func (r *Report) MaxTotal() int {
	var total int
	for _, c := range r.Categories {
		total += c.Max
	}
	return total
}

func (r *Report) Percent() float64 {
	return float64(r.Total()) / float64(r.MaxTotal()) * 100
}

func (r *Report) Rating() string {
	switch p := r.Percent(); {
	case p >= 90:
		return "★★★★★ Excellent"
	case p >= 80:
		return "★★★★ Very Good"
	case p >= 70:
		return "★★★ Good"
	case p >= 60:
		return "★★ Needs Work"
	default:
		return "★ Block - Critical Issues"
	}
}

// Relevant reports whether the rubric knows how to grade this file.
// Everything else is left alone so the score command stays quiet on
// unrelated edits.
func Relevant(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".cls"):
		return true
	case strings.HasSuffix(base, ".xml") && strings.Contains(base, "namedCredential"):
		return true
	case strings.HasSuffix(base, ".xml") && strings.Contains(base, "object"):
		return true
	}
	return false
}

// Score reads path and grades it. Irrelevant files return (nil, nil).
func Score(path string) (*Report, error) {
	if !Relevant(path) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	base := filepath.Base(path)
	r := newReport(base)
	src := string(content)

	switch {
	case strings.HasSuffix(base, ".cls"):
		scoreApex(src, r)
	case strings.Contains(base, "namedCredential"):
		scoreNamedCredential(src, r)
	default:
		scoreCustomObject(src, r)
	}
	return r, nil
}
