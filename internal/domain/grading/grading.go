// Package grading turns raw subject marks into grades and a result verdict.
// Mark sheets, result listings and dashboards all go through Aggregate.
package grading

import (
	"fmt"
	"math"
)

// Verdict is the overall outcome of an examination.
type Verdict string

const (
	VerdictPassed Verdict = "Passed"
	VerdictFailed Verdict = "Failed"
	VerdictAbsent Verdict = "Absent"
)

// PassPercentage is the minimum per-subject percentage to pass.
const PassPercentage = 40.0

const absentDisplay = "Absent"

type band struct {
	min   float64
	grade string
}

// bands are checked top-down; lower bounds are inclusive.
var bands = []band{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C"},
	{40, "D"},
}

// Grade returns the letter grade for a percentage.
func Grade(pct float64) string {
	for _, b := range bands {
		if pct >= b.min {
			return b.grade
		}
	}
	return "F"
}

// SubjectMark is the raw mark of one subject.
type SubjectMark struct {
	Subject       string
	MarksObtained float64
	MaxMarks      float64
	IsAbsent      bool
}

// SubjectResult is the graded form of a SubjectMark.
type SubjectResult struct {
	Subject       string  `json:"subject"`
	MarksObtained float64 `json:"marksObtained"`
	MaxMarks      float64 `json:"maxMarks"`
	Percentage    float64 `json:"percentage"`
	Display       string  `json:"display"`
	Grade         string  `json:"grade"`
	IsAbsent      bool    `json:"isAbsent"`
}

// Result is the aggregate over all subjects.
type Result struct {
	Subjects      []SubjectResult `json:"subjects"`
	TotalObtained float64         `json:"totalObtained"`
	TotalMax      float64         `json:"totalMax"`
	Percentage    float64         `json:"percentage"`
	Grade         string          `json:"grade"`
	Verdict       Verdict         `json:"verdict"`
}

// Percentage is obtained/max*100 rounded to two decimals, or 0 when max is 0.
// Only for display; grading uses the unrounded ratio.
func Percentage(obtained, max float64) float64 {
	return round2(ratio(obtained, max))
}

func ratio(obtained, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return obtained / max * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregate grades each subject and computes the overall result.
// An absent subject counts 0 towards the obtained total but its maximum stays
// in the denominator. The verdict is Absent if any subject was missed, else
// Failed if any subject is under PassPercentage, else Passed.
func Aggregate(marks []SubjectMark) Result {
	res := Result{Subjects: make([]SubjectResult, 0, len(marks))}

	anyAbsent := false
	anyFailed := false
	for _, m := range marks {
		sr := SubjectResult{
			Subject:  m.Subject,
			MaxMarks: m.MaxMarks,
			IsAbsent: m.IsAbsent,
		}
		if m.IsAbsent {
			anyAbsent = true
			sr.Display = absentDisplay
			sr.Grade = "-"
		} else {
			sr.MarksObtained = m.MarksObtained
			pct := ratio(m.MarksObtained, m.MaxMarks)
			sr.Percentage = round2(pct)
			sr.Display = fmt.Sprintf("%.2f%%", sr.Percentage)
			sr.Grade = Grade(pct)
			if pct < PassPercentage {
				anyFailed = true
			}
		}

		res.TotalObtained += sr.MarksObtained
		res.TotalMax += m.MaxMarks
		res.Subjects = append(res.Subjects, sr)
	}

	total := ratio(res.TotalObtained, res.TotalMax)
	res.Percentage = round2(total)
	res.Grade = Grade(total)

	switch {
	case anyAbsent:
		res.Verdict = VerdictAbsent
	case anyFailed:
		res.Verdict = VerdictFailed
	default:
		res.Verdict = VerdictPassed
	}
	return res
}
