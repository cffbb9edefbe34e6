package services

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
	"github.com/fieo/orgregistry/modules/registry/infrastructure/source"
)

func mapOffice(defaultCountry string) rowMapper[entities.Office] {
	return func(c *source.ColumnMap, rec source.Record) (entities.Office, *Skip) {
		o := entities.Office{
			Name:      c.Get(rec, "office"),
			Address:   schema.String(c.Get(rec, "address")),
			City:      schema.String(c.Get(rec, "city")),
			State:     schema.String(c.Get(rec, "state")),
			Pin:       schema.String(c.Get(rec, "pin")),
			Email:     schema.String(c.Get(rec, "email")),
			Phone:     schema.String(c.Get(rec, "phone")),
			Fax:       schema.String(c.Get(rec, "fax")),
			Country:   defaultCountry,
			Latitude:  schema.Decimal(c.Get(rec, "latitude")),
			Longitude: schema.Decimal(c.Get(rec, "longitude")),
			ParentRef: schema.String(c.Get(rec, "parent")),
			SortID:    schema.Int(c.Get(rec, "sort_id"), 0),
			IsActive:  schema.Bool(c.Get(rec, "is_active"), true),
		}
		if v := c.Get(rec, "country"); v != "" {
			o.Country = v
		}
		// coordinates are stored as a pair or not at all
		if !o.Latitude.Valid || !o.Longitude.Valid {
			o.Latitude.Valid, o.Longitude.Valid = false, false
		}
		return o, nil
	}
}

func mapDesignation(c *source.ColumnMap, rec source.Record) (entities.Designation, *Skip) {
	return entities.Designation{
		Title:       c.Get(rec, "designation"),
		Description: schema.String(c.Get(rec, "description")),
		ShortTitle:  schema.String(c.Get(rec, "short_title")),
		Seniority:   schema.Int(c.Get(rec, "seniority"), 0),
		SortID:      schema.Int(c.Get(rec, "sort_id"), 0),
		IsOfficer:   schema.Bool(c.Get(rec, "is_officer"), true),
		IsActive:    schema.Bool(c.Get(rec, "is_active"), true),
	}, nil
}

// mapDepartment resolves the optional office reference, by id or office name,
// against the offices committed before the stage started.
func mapDepartment(offices *entities.KeyIndex) rowMapper[entities.Department] {
	return func(c *source.ColumnMap, rec source.Record) (entities.Department, *Skip) {
		d := entities.Department{
			Name:        c.Get(rec, "department"),
			Description: schema.String(c.Get(rec, "description")),
			ShortTitle:  schema.String(c.Get(rec, "short_title")),
			Type:        entities.ParseDepartmentType(c.Get(rec, "type")),
			GSTIN:       schema.String(c.Get(rec, "gstin")),
			MID:         schema.String(c.Get(rec, "mid")),
			URL:         schema.String(c.Get(rec, "url")),
			ParentRef:   schema.String(c.Get(rec, "parent")),
			SortID:      schema.Int(c.Get(rec, "sort_id"), 0),
			IsActive:    schema.Bool(c.Get(rec, "is_active"), true),
		}
		if ref := c.Get(rec, "office"); ref != "" {
			if offices == nil {
				return d, &Skip{Reason: ReasonDanglingReference, Fields: []string{"office"}}
			}
			id, ok := offices.Resolve(ref)
			if !ok {
				return d, &Skip{Reason: ReasonDanglingReference, Fields: []string{"office"}}
			}
			d.OfficeID = &id
		}
		return d, nil
	}
}

func mapAccount(defaultPassword string) rowMapper[entities.Account] {
	return func(c *source.ColumnMap, rec source.Record) (entities.Account, *Skip) {
		email := strings.ToLower(c.Get(rec, "email"))
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return entities.Account{}, &Skip{Reason: ReasonMalformed, Fields: []string{"email"}, Detail: "invalid email address"}
		}
		a := entities.Account{
			Name:     c.Get(rec, "name"),
			Email:    email,
			Password: c.Get(rec, "password"),
			Verified: schema.Bool(c.Get(rec, "verified"), true),
		}
		if len(a.Password) > entities.MaxPasswordBytes {
			return entities.Account{}, &Skip{
				Reason: ReasonMalformed,
				Fields: []string{"password"},
				Detail: fmt.Sprintf("password longer than %d bytes", entities.MaxPasswordBytes),
			}
		}
		if a.Password == "" {
			a.Password = defaultPassword
		}
		return a, nil
	}
}

var employeeForeignFields = []string{"user_id", "designation", "department", "office"}

// mapEmployee requires numeric user, designation, department and office ids
// that exist in refs. Chain fields are kept as raw emp_id references.
func mapEmployee(refs References) rowMapper[entities.Employee] {
	sets := map[string]*entities.KeyIndex{
		"user_id":     refs.Users,
		"designation": refs.Designations,
		"department":  refs.Departments,
		"office":      refs.Offices,
	}
	return func(c *source.ColumnMap, rec source.Record) (entities.Employee, *Skip) {
		ids := make(map[string]int64, len(employeeForeignFields))
		var malformed, dangling []string
		for _, f := range employeeForeignFields {
			id, ok := schema.ID(c.Get(rec, f))
			if !ok {
				malformed = append(malformed, f)
				continue
			}
			ids[f] = id
		}
		if len(malformed) > 0 {
			return entities.Employee{}, &Skip{Reason: ReasonMalformed, Fields: malformed, Detail: "not a numeric id"}
		}
		for _, f := range employeeForeignFields {
			if set := sets[f]; set == nil || !set.HasID(ids[f]) {
				dangling = append(dangling, f)
			}
		}
		if len(dangling) > 0 {
			return entities.Employee{}, &Skip{Reason: ReasonDanglingReference, Fields: dangling}
		}

		empID := c.Get(rec, "emp_id")
		e := entities.Employee{
			EmpID:         empID,
			UserID:        ids["user_id"],
			DesignationID: ids["designation"],
			DepartmentID:  ids["department"],
			OfficeID:      ids["office"],
			SortID:        schema.NullableInt(c.Get(rec, "sort_id")),
			Salutation:    schema.String(c.Get(rec, "salutation")),
			Name:          c.Get(rec, "name"),
			Gender:        entities.ParseGender(c.Get(rec, "gender")),
			DOB:           schema.Date(c.Get(rec, "dob")),
			DOJ:           schema.Date(c.Get(rec, "doj")),
			Status:        entities.ParseEmploymentStatus(c.Get(rec, "status")),
			Grade:         schema.String(c.Get(rec, "grade")),
			SupervisorRef: schema.String(c.Get(rec, "supervisor")),
			ManagerRef:    schema.String(c.Get(rec, "manager")),
			ApproverRef:   schema.String(c.Get(rec, "approver")),
			Email:         strings.ToLower(c.Get(rec, "email")),
			Mobile:        schema.String(c.Get(rec, "mobile")),
			PAN:           schema.String(c.Get(rec, "pan")),
			Aadhar:        schema.String(c.Get(rec, "aadhar")),
			UAN:           schema.String(c.Get(rec, "uan")),
			LicID:         schema.String(c.Get(rec, "lic_id")),
			IsActive:      schema.Bool(c.Get(rec, "is_active"), true),
		}
		if e.Name == "" {
			e.Name = empID
		}
		return e, nil
	}
}
