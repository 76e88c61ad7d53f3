package models

import (
	"strings"
	"time"
)

// Student is an admitted pupil.
type Student struct {
	ID             int64   `json:"id" db:"id"`
	StudentID      string  `json:"studentId" db:"student_id"`
	RollNo         string  `json:"rollNo" db:"roll_no"`
	GovtProvidedID *string `json:"govtProvidedId,omitempty" db:"govt_provided_id"`
	FirstName      string  `json:"firstName" db:"first_name"`
	MiddleName     *string `json:"middleName,omitempty" db:"middle_name"`
	LastName       string  `json:"lastName" db:"last_name"`

	FatherFirstName *string `json:"fatherFirstName,omitempty" db:"father_first_name"`
	FatherLastName  *string `json:"fatherLastName,omitempty" db:"father_last_name"`
	FatherMobile    *string `json:"fatherMobile,omitempty" db:"father_mobile"`
	MotherFirstName *string `json:"motherFirstName,omitempty" db:"mother_first_name"`
	MotherLastName  *string `json:"motherLastName,omitempty" db:"mother_last_name"`
	MotherMobile    *string `json:"motherMobile,omitempty" db:"mother_mobile"`
	ParentID        *string `json:"parentId,omitempty" db:"parent_id"`
	ParentRelation  *string `json:"parentRelation,omitempty" db:"parent_relation"`

	Gender      string    `json:"gender" db:"gender"`
	DateOfBirth time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Category    *string   `json:"category,omitempty" db:"category"`
	Community   *string   `json:"community,omitempty" db:"community"`
	Nationality *string   `json:"nationality,omitempty" db:"nationality"`
	BloodGroup  *string   `json:"bloodGroup,omitempty" db:"blood_group"`

	Email   *string `json:"email,omitempty" db:"email"`
	Mobile  *string `json:"mobile,omitempty" db:"mobile"`
	Address *string `json:"address,omitempty" db:"address"`

	AdmissionYear     int     `json:"admissionYear" db:"admission_year"`
	CurrentStudyClass string  `json:"currentStudyClass" db:"current_study_class"`
	CurrentSection    string  `json:"currentSection" db:"current_section"`
	Medium            *string `json:"medium,omitempty" db:"medium"`

	ConcessionPercentage float64 `json:"concessionPercentage" db:"concession_percentage"`
	ConcessionReason     *string `json:"concessionReason,omitempty" db:"concession_reason"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName joins the non-empty name parts.
func (s *Student) FullName() string {
	parts := []string{s.FirstName}
	if s.MiddleName != nil && *s.MiddleName != "" {
		parts = append(parts, *s.MiddleName)
	}
	parts = append(parts, s.LastName)
	return strings.Join(parts, " ")
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Class         string
	Section       string
	AdmissionYear int
	Search        string
}
