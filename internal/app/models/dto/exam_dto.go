package dto

import (
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/domain/grading"
)

// ExamSubjectRequest is one subject of an examination.
type ExamSubjectRequest struct {
	Name     string  `json:"name" binding:"required,max=60"`
	MaxMarks float64 `json:"maxMarks" binding:"gt=0"`
}

// ExaminationRequest creates or replaces an examination.
type ExaminationRequest struct {
	Name        string               `json:"name" binding:"required,max=80"`
	Class       string               `json:"class" binding:"required,max=16"`
	SessionYear string               `json:"sessionYear" binding:"required,max=16"`
	ExamType    string               `json:"examType" binding:"max=40"`
	Subjects    []ExamSubjectRequest `json:"subjects" binding:"required,min=1,dive"`
	StartDate   string               `json:"startDate"`
}

// MarkEntry is one student's mark in one subject.
type MarkEntry struct {
	StudentID     string  `json:"studentId" binding:"required"`
	Subject       string  `json:"subject" binding:"required"`
	MarksObtained float64 `json:"marksObtained" binding:"gte=0"`
	IsAbsent      bool    `json:"isAbsent"`
	Remarks       *string `json:"remarks" binding:"omitempty,max=200"`
}

// MarksRequest upserts marks in bulk.
type MarksRequest struct {
	Marks []MarkEntry `json:"marks" binding:"required,min=1,dive"`
}

// StudentExamResult is one student's graded result for one examination.
type StudentExamResult struct {
	ExamID      int64          `json:"examId"`
	ExamName    string         `json:"examName"`
	ExamType    string         `json:"examType,omitempty"`
	SessionYear string         `json:"sessionYear"`
	Class       string         `json:"class"`
	Published   bool           `json:"published"`
	Result      grading.Result `json:"result"`
}

// NewStudentExamResult aggregates marks for an examination.
func NewStudentExamResult(exam *models.Examination, marks []models.ExamMark) StudentExamResult {
	subjectMarks := make([]grading.SubjectMark, 0, len(marks))
	for _, m := range marks {
		subjectMarks = append(subjectMarks, grading.SubjectMark{
			Subject:       m.Subject,
			MarksObtained: m.MarksObtained,
			MaxMarks:      m.MaxMarks,
			IsAbsent:      m.IsAbsent,
		})
	}
	return StudentExamResult{
		ExamID:      exam.ID,
		ExamName:    exam.Name,
		ExamType:    exam.ExamType,
		SessionYear: exam.SessionYear,
		Class:       exam.Class,
		Published:   exam.Published,
		Result:      grading.Aggregate(subjectMarks),
	}
}

// ExamResultRow is one line of an examination's class result list.
type ExamResultRow struct {
	Rank        int            `json:"rank"`
	StudentID   string         `json:"studentId"`
	StudentName string         `json:"studentName"`
	RollNo      string         `json:"rollNo"`
	Result      grading.Result `json:"result"`
}
