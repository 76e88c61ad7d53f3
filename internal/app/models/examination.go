package models

import (
	"strings"
	"time"
)

// ExamSubject is a subject sat in an examination.
type ExamSubject struct {
	Name     string  `json:"name"`
	MaxMarks float64 `json:"maxMarks"`
}

// Examination is an exam for one class in one session year.
type Examination struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Class       string        `json:"class" db:"class"`
	SessionYear string        `json:"sessionYear" db:"session_year"`
	ExamType    string        `json:"examType" db:"exam_type"`
	Subjects    []ExamSubject `json:"subjects" db:"subjects"`
	StartDate   *time.Time    `json:"startDate,omitempty" db:"start_date"`
	Published   bool          `json:"published" db:"published"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty" db:"published_at"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// Subject returns the named subject, matched case-insensitively.
func (e *Examination) Subject(name string) (ExamSubject, bool) {
	for _, s := range e.Subjects {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return ExamSubject{}, false
}

// ExamMark is one student's mark in one subject of an examination.
type ExamMark struct {
	ID            int64     `json:"id" db:"id"`
	ExamID        int64     `json:"examId" db:"exam_id"`
	StudentID     string    `json:"studentId" db:"student_id"`
	Subject       string    `json:"subject" db:"subject"`
	MarksObtained float64   `json:"marksObtained" db:"marks_obtained"`
	MaxMarks      float64   `json:"maxMarks" db:"max_marks"`
	IsAbsent      bool      `json:"isAbsent" db:"is_absent"`
	Remarks       *string   `json:"remarks,omitempty" db:"remarks"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// ExamFilter narrows examination listings.
type ExamFilter struct {
	Class         string
	SessionYear   string
	PublishedOnly bool
}
