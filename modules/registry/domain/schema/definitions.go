// Package schema holds the static column contract of every ingestible entity kind:
// canonical fields, their accepted header aliases and which of them are required.
package schema

// Kind identifies one ingestible entity kind. The value doubles as the default
// source file stem and the storage table name.
type Kind string

const (
	KindOffice      Kind = "offices"
	KindDesignation Kind = "designations"
	KindDepartment  Kind = "departments"
	KindUser        Kind = "users"
	KindEmployee    Kind = "employees"
)

// Order is the fixed dependency order in which stages run. Later kinds validate
// their references against rows committed by earlier ones.
var Order = []Kind{KindOffice, KindDesignation, KindDepartment, KindUser, KindEmployee}

func (k Kind) String() string { return string(k) }

// Field is a canonical field and its accepted header synonyms, first match wins.
// Bound is the limit of the column the value is stored in.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
	Bound    Bound
}

// Definition describes one kind. SoftDelete marks tables whose rows carry a
// deleted_at column; deleted rows are invisible to lookups and uniqueness.
type Definition struct {
	Kind       Kind
	Table      string
	Key        string
	SoftDelete bool
	Fields     []Field
}

// Field returns the named field definition.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields lists the canonical names that must be present in a header.
func (d Definition) RequiredFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

var (
	activeAliases = []string{"is_active", "active", "status"}
	sortAliases   = []string{"sort_id", "sortid", "sort", "order"}
)

// Column widths of migrations/00001_registry_baseline.sql.
const (
	nameWidth  = 255
	emailWidth = 191
	empIDWidth = 64
)

var definitions = map[Kind]Definition{
	KindOffice: {
		Kind:       KindOffice,
		Table:      "offices",
		SoftDelete: true,
		Key:        "office",
		Fields: []Field{
			{Name: "office", Aliases: []string{"office", "name", "office_name", "location"}, Required: true, Bound: text(nameWidth)},
			{Name: "address", Aliases: []string{"address", "addr"}, Bound: text(255)},
			{Name: "city", Aliases: []string{"city", "town"}, Bound: text(255)},
			{Name: "state", Aliases: []string{"state", "region_state"}, Bound: text(255)},
			{Name: "pin", Aliases: []string{"pin", "pincode", "zipcode", "zip"}, Bound: text(255)},
			{Name: "email", Aliases: []string{"email", "mail"}, Bound: text(255)},
			{Name: "phone", Aliases: []string{"phone", "tel", "mobile"}, Bound: text(255)},
			{Name: "fax", Aliases: []string{"fax"}, Bound: text(255)},
			{Name: "country", Aliases: []string{"country"}, Bound: text(64)},
			{Name: "latitude", Aliases: []string{"latitude", "lat"}, Bound: latitudeBound},
			{Name: "longitude", Aliases: []string{"longitude", "lng", "long"}, Bound: longitudeBound},
			{Name: "sort_id", Aliases: sortAliases, Bound: integerBound},
			{Name: "parent", Aliases: []string{"parent_id", "parent", "parent_office"}, Bound: text(nameWidth)},
			{Name: "is_active", Aliases: activeAliases},
		},
	},
	KindDesignation: {
		Kind:       KindDesignation,
		Table:      "designations",
		SoftDelete: true,
		Key:        "designation",
		Fields: []Field{
			{Name: "designation", Aliases: []string{"designation", "title", "designation_name", "name"}, Required: true, Bound: text(nameWidth)},
			{Name: "description", Aliases: []string{"description", "desc"}, Bound: text(255)},
			{Name: "short_title", Aliases: []string{"short_title", "short", "abbr", "abbreviation"}, Bound: text(255)},
			{Name: "seniority", Aliases: []string{"seniority", "rank", "level"}, Bound: integerBound},
			{Name: "sort_id", Aliases: sortAliases, Bound: integerBound},
			{Name: "is_officer", Aliases: []string{"is_officer", "officer"}},
			{Name: "is_active", Aliases: activeAliases},
		},
	},
	KindDepartment: {
		Kind:       KindDepartment,
		Table:      "departments",
		SoftDelete: true,
		Key:        "department",
		Fields: []Field{
			{Name: "department", Aliases: []string{"department", "department_name", "dept", "name"}, Required: true, Bound: text(nameWidth)},
			{Name: "description", Aliases: []string{"description", "desc"}, Bound: text(255)},
			{Name: "short_title", Aliases: []string{"short_title", "short", "abbr", "abbreviation"}, Bound: text(255)},
			{Name: "type", Aliases: []string{"type", "dept_type", "category"}},
			{Name: "gstin", Aliases: []string{"gstin"}, Bound: text(15)},
			{Name: "mid", Aliases: []string{"mid", "merchant_id"}, Bound: text(255)},
			{Name: "url", Aliases: []string{"url", "website"}, Bound: text(255)},
			{Name: "sort_id", Aliases: sortAliases, Bound: integerBound},
			{Name: "parent", Aliases: []string{"parent_id", "parent", "parent_department"}, Bound: text(nameWidth)},
			{Name: "office", Aliases: []string{"office_id", "office"}},
			{Name: "is_active", Aliases: activeAliases},
		},
	},
	KindUser: {
		Kind:  KindUser,
		Table: "users",
		Key:   "email",
		Fields: []Field{
			{Name: "name", Aliases: []string{"name", "full_name", "display_name"}, Bound: text(255)},
			{Name: "email", Aliases: []string{"email", "email_address", "mail"}, Required: true, Bound: text(emailWidth)},
			{Name: "password", Aliases: []string{"password", "pass", "secret"}},
			{Name: "verified", Aliases: []string{"verified", "email_verified", "is_verified"}},
		},
	},
	KindEmployee: {
		Kind:       KindEmployee,
		Table:      "employees",
		SoftDelete: true,
		Key:        "emp_id",
		Fields: []Field{
			{Name: "emp_id", Aliases: []string{"emp_id", "employee_id", "emp_code", "code"}, Required: true, Bound: text(empIDWidth)},
			{Name: "user_id", Aliases: []string{"user_id", "user"}, Required: true},
			{Name: "designation", Aliases: []string{"designation", "designation_id"}, Required: true},
			{Name: "department", Aliases: []string{"department", "department_id", "dept"}, Required: true},
			{Name: "office", Aliases: []string{"office", "office_id"}, Required: true},
			{Name: "email", Aliases: []string{"email", "mail"}, Required: true, Bound: text(emailWidth)},
			{Name: "is_active", Aliases: []string{"is_active", "active"}, Required: true},
			{Name: "sort_id", Aliases: sortAliases, Bound: integerBound},
			{Name: "salutation", Aliases: []string{"salutation", "title"}, Bound: text(16)},
			{Name: "name", Aliases: []string{"name", "full_name"}, Bound: text(128)},
			{Name: "gender", Aliases: []string{"gender", "sex"}},
			{Name: "dob", Aliases: []string{"dob", "date_of_birth"}},
			{Name: "doj", Aliases: []string{"doj", "date_of_joining", "joining_date"}},
			{Name: "status", Aliases: []string{"status", "employment_status"}},
			{Name: "grade", Aliases: []string{"grade"}, Bound: text(32)},
			{Name: "supervisor", Aliases: []string{"supervisor", "supervisor_id", "reports_to"}, Bound: text(empIDWidth)},
			{Name: "manager", Aliases: []string{"manager", "manager_id"}, Bound: text(empIDWidth)},
			{Name: "approver", Aliases: []string{"approver", "approver_id"}, Bound: text(empIDWidth)},
			{Name: "mobile", Aliases: []string{"mobile", "phone"}, Bound: text(32)},
			{Name: "pan", Aliases: []string{"pan"}, Bound: text(20)},
			{Name: "aadhar", Aliases: []string{"aadhar", "aadhaar"}, Bound: text(20)},
			{Name: "uan", Aliases: []string{"uan"}, Bound: text(20)},
			{Name: "lic_id", Aliases: []string{"lic_id", "lic"}, Bound: text(50)},
		},
	},
}

// Lookup returns the definition of a kind.
func Lookup(kind Kind) (Definition, bool) {
	d, ok := definitions[kind]
	return d, ok
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(kind Kind) Definition {
	d, ok := definitions[kind]
	if !ok {
		panic("schema: unknown kind " + string(kind))
	}
	return d
}
