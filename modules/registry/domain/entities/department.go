package entities

import "strings"

type DepartmentType string

const (
	DepartmentTypeHO         DepartmentType = "HO"
	DepartmentTypeDepartment DepartmentType = "Department"
	DepartmentTypeRegion     DepartmentType = "Region"
	DepartmentTypeChapter    DepartmentType = "Chapter"
	DepartmentTypeOffice     DepartmentType = "Office"
)

var departmentTypes = []DepartmentType{
	DepartmentTypeHO,
	DepartmentTypeDepartment,
	DepartmentTypeRegion,
	DepartmentTypeChapter,
	DepartmentTypeOffice,
}

// ParseDepartmentType matches v case-insensitively against the fixed
// vocabulary. Unknown values yield nil.
func ParseDepartmentType(v string) *DepartmentType {
	v = strings.TrimSpace(v)
	for _, t := range departmentTypes {
		if strings.EqualFold(v, string(t)) {
			out := t
			return &out
		}
	}
	return nil
}

type Department struct {
	Name        string
	Description *string
	ShortTitle  *string
	Type        *DepartmentType
	GSTIN       *string
	MID         *string
	URL         *string
	ParentRef   *string
	OfficeID    *int64
	SortID      int
	IsActive    bool
}
