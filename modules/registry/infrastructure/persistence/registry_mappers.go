package persistence

import (
	"time"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
)

func officeArgs(o entities.Office) []any {
	return []any{
		o.Name, o.Address, o.City, o.State, o.Pin, o.Email, o.Phone, o.Fax,
		o.Country, o.Latitude, o.Longitude, o.ParentRef, o.SortID, o.IsActive,
	}
}

func designationArgs(d entities.Designation) []any {
	return []any{d.Title, d.Description, d.ShortTitle, d.Seniority, d.SortID, d.IsOfficer, d.IsActive}
}

func departmentArgs(d entities.Department) []any {
	var typ *string
	if d.Type != nil {
		v := string(*d.Type)
		typ = &v
	}
	return []any{
		d.Name, d.Description, d.ShortTitle, typ, d.GSTIN, d.MID, d.URL,
		d.ParentRef, d.OfficeID, d.SortID, d.IsActive,
	}
}

func accountArgs(name, email, hash string, verifiedAt *time.Time) []any {
	return []any{name, email, hash, verifiedAt}
}

func employeeArgs(e entities.Employee) []any {
	var gender *string
	if e.Gender != nil {
		v := string(*e.Gender)
		gender = &v
	}
	return []any{
		e.EmpID, e.UserID, e.Salutation, e.Name, gender, e.DOB, e.DOJ,
		e.DesignationID, e.DepartmentID, e.OfficeID, string(e.Status), e.Grade,
		e.SupervisorRef, e.ManagerRef, e.ApproverRef,
		e.Email, e.Mobile, e.PAN, e.Aadhar, e.UAN, e.LicID,
		e.SortID, e.IsActive,
	}
}
