package schema

// LinkField is a self-referential reference stored as a raw business key
// (RefColumn) and resolved by the linker into a surrogate id (IDColumn).
type LinkField struct {
	Kind      Kind
	Name      string
	RefColumn string
	IDColumn  string
}

func (l LinkField) String() string { return string(l.Kind) + "." + l.Name }

var (
	OfficeParent       = LinkField{Kind: KindOffice, Name: "parent", RefColumn: "parent_ref", IDColumn: "parent_id"}
	DepartmentParent   = LinkField{Kind: KindDepartment, Name: "parent", RefColumn: "parent_ref", IDColumn: "parent_id"}
	EmployeeSupervisor = LinkField{Kind: KindEmployee, Name: "supervisor", RefColumn: "supervisor_ref", IDColumn: "supervisor_id"}
	EmployeeManager    = LinkField{Kind: KindEmployee, Name: "manager", RefColumn: "manager_ref", IDColumn: "manager_id"}
	EmployeeApprover   = LinkField{Kind: KindEmployee, Name: "approver", RefColumn: "approver_ref", IDColumn: "approver_id"}
)

// LinkFields lists every link the linker resolves, in resolution order.
var LinkFields = []LinkField{OfficeParent, DepartmentParent, EmployeeSupervisor, EmployeeManager, EmployeeApprover}
