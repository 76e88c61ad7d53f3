package dto

import "github.com/yigit/schooladmin/internal/app/models"

// StudentRequest is the admission form. It is also used for full updates.
type StudentRequest struct {
	StudentID      string  `json:"studentId" binding:"required,max=32"`
	RollNo         string  `json:"rollNo" binding:"required,max=16"`
	GovtProvidedID *string `json:"govtProvidedId" binding:"omitempty,max=32"`
	FirstName      string  `json:"firstName" binding:"required,max=60"`
	MiddleName     *string `json:"middleName" binding:"omitempty,max=60"`
	LastName       string  `json:"lastName" binding:"required,max=60"`

	FatherFirstName *string `json:"fatherFirstName" binding:"omitempty,max=60"`
	FatherLastName  *string `json:"fatherLastName" binding:"omitempty,max=60"`
	FatherMobile    *string `json:"fatherMobile" binding:"omitempty,max=20"`
	MotherFirstName *string `json:"motherFirstName" binding:"omitempty,max=60"`
	MotherLastName  *string `json:"motherLastName" binding:"omitempty,max=60"`
	MotherMobile    *string `json:"motherMobile" binding:"omitempty,max=20"`
	ParentID        *string `json:"parentId" binding:"omitempty,min=3,max=64"`
	ParentRelation  *string `json:"parentRelation" binding:"omitempty,max=20"`

	Gender      string  `json:"gender" binding:"required,oneof=male female other"`
	DateOfBirth string  `json:"dateOfBirth" binding:"required"`
	Category    *string `json:"category" binding:"omitempty,max=30"`
	Community   *string `json:"community" binding:"omitempty,max=60"`
	Nationality *string `json:"nationality" binding:"omitempty,max=60"`
	BloodGroup  *string `json:"bloodGroup" binding:"omitempty,max=5"`

	Email   *string `json:"email" binding:"omitempty,email"`
	Mobile  *string `json:"mobile" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=500"`

	AdmissionYear     int     `json:"admissionYear" binding:"required,gte=1900,lte=2200"`
	CurrentStudyClass string  `json:"currentStudyClass" binding:"required,max=16"`
	CurrentSection    string  `json:"currentSection" binding:"required,max=8"`
	Medium            *string `json:"medium" binding:"omitempty,max=30"`

	ConcessionPercentage float64 `json:"concessionPercentage" binding:"gte=0,lte=100"`
	ConcessionReason     *string `json:"concessionReason" binding:"omitempty,max=200"`

	// InitialPassword defaults to the date of birth as DDMMYYYY.
	InitialPassword *string `json:"initialPassword" binding:"omitempty,min=8"`
}

// AdmissionResponse is returned after a successful admission.
type AdmissionResponse struct {
	Student      *models.Student `json:"student"`
	UserID       string          `json:"userId"`
	ParentUserID *string         `json:"parentUserId,omitempty"`
}

// RollNoAvailability answers the roll number pre-check.
type RollNoAvailability struct {
	Available bool `json:"available"`
}
