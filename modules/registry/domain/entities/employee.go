package entities

import (
	"strings"
	"time"
)

type EmploymentStatus string

const (
	StatusConfirmed   EmploymentStatus = "confirmed"
	StatusContractual EmploymentStatus = "contractual"
	StatusProbation   EmploymentStatus = "probation"
	StatusRetired     EmploymentStatus = "retired"
	StatusResigned    EmploymentStatus = "resigned"
)

// ParseEmploymentStatus coerces anything outside the vocabulary to confirmed.
func ParseEmploymentStatus(v string) EmploymentStatus {
	switch s := EmploymentStatus(strings.ToLower(strings.TrimSpace(v))); s {
	case StatusConfirmed, StatusContractual, StatusProbation, StatusRetired, StatusResigned:
		return s
	default:
		return StatusConfirmed
	}
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// ParseGender accepts male/female/other and their initials; anything else is nil.
func ParseGender(v string) *Gender {
	var g Gender
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "male", "m":
		g = GenderMale
	case "female", "f":
		g = GenderFemale
	case "other", "o":
		g = GenderOther
	default:
		return nil
	}
	return &g
}

type Employee struct {
	EmpID         string
	UserID        int64
	DesignationID int64
	DepartmentID  int64
	OfficeID      int64

	SortID     *int
	Salutation *string
	Name       string
	Gender     *Gender
	DOB        *time.Time
	DOJ        *time.Time
	Status     EmploymentStatus
	Grade      *string

	SupervisorRef *string
	ManagerRef    *string
	ApproverRef   *string

	Email  string
	Mobile *string
	PAN    *string
	Aadhar *string
	UAN    *string
	LicID  *string

	IsActive bool
}
