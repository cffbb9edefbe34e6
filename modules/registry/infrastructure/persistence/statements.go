package persistence

var (
	officeUpsert = upsertStatement{
		table:      "offices",
		key:        "office",
		softDelete: true,
		columns: []string{
			"office", "address", "city", "state", "pin", "email", "phone", "fax",
			"country", "latitude", "longitude", "parent_ref", "sort_id", "is_active",
		},
	}

	designationUpsert = upsertStatement{
		table:      "designations",
		key:        "designation",
		softDelete: true,
		columns: []string{
			"designation", "description", "short_title", "seniority", "sort_id", "is_officer", "is_active",
		},
	}

	departmentUpsert = upsertStatement{
		table:      "departments",
		key:        "department",
		softDelete: true,
		columns: []string{
			"department", "description", "short_title", "type", "gstin", "mid", "url",
			"parent_ref", "office_id", "sort_id", "is_active",
		},
	}

	accountUpsert = upsertStatement{
		table:   "users",
		key:     "email",
		columns: []string{"name", "email", "password", "email_verified_at"},
	}

	employeeUpsert = upsertStatement{
		table:      "employees",
		key:        "emp_id",
		softDelete: true,
		columns: []string{
			"emp_id", "user_id", "salutation", "name", "gender", "dob", "doj",
			"designation_id", "department_id", "office_id", "status", "grade",
			"supervisor_ref", "manager_ref", "approver_ref",
			"email", "mobile", "pan", "aadhar", "uan", "lic_id",
			"sort_id", "is_active",
		},
	}
)
