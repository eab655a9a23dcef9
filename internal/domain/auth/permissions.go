package auth

import "context"

const (
	PermAttendanceRead      = "attendance.read"
	PermAttendanceWrite     = "attendance.write"
	PermAttendanceDelete    = "attendance.delete"
	PermRegistryRead        = "registry.read"
	PermRegistryWrite       = "registry.write"
	PermRegistryDelete      = "registry.delete"
	PermPayrollRead         = "payroll.read"
	PermPayrollSettingsEdit = "payroll.settings.write"
	PermReportsRead         = "reports.read"
	PermUsersManage         = "users.manage"
	PermAuditRead           = "audit.read"
)

var DefaultPermissions = []string{
	PermAttendanceRead,
	PermAttendanceWrite,
	PermAttendanceDelete,
	PermRegistryRead,
	PermRegistryWrite,
	PermRegistryDelete,
	PermPayrollRead,
	PermPayrollSettingsEdit,
	PermReportsRead,
	PermUsersManage,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleUser: {
		PermAttendanceRead,
		PermAttendanceWrite,
		PermRegistryRead,
		PermRegistryWrite,
		PermPayrollRead,
		PermReportsRead,
	},
	RoleAdmin: DefaultPermissions,
}

var roleIndex = func() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(RolePermissions))
	for role, perms := range RolePermissions {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		out[role] = set
	}
	return out
}()

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	_, ok := roleIndex[role][permission]
	return ok, nil
}
