package entities

// Designation is a job title. Lower seniority means more senior.
type Designation struct {
	Title       string
	Description *string
	ShortTitle  *string
	Seniority   int
	SortID      int
	IsOfficer   bool
	IsActive    bool
}
