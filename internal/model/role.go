package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Assignable  bool        `gorm:"not null" json:"assignable"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleStaff   = "STAFF"
	// RoleOwner comes from the identity provider only; it cannot be assigned through user management.
	RoleOwner = "OWNER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{Code: RoleOwner, Name: "Owner", Description: "Shop owner, approves and receives procurement"},
	{Code: RoleAdmin, Name: "Administrator", Description: "Full system access", Assignable: true},
	{Code: RoleManager, Name: "Manager", Description: "Runs daily stock operations and imports", Assignable: true},
	{Code: RoleStaff, Name: "Staff", Description: "Consumes stock and raises requests", Assignable: true},
}

var everyRole = []string{PrivCatalogView, PrivCatalogCreate, PrivInventoryView, PrivInventoryConsume,
	PrivInventoryStatus, PrivProcurementView, PrivProcurementCreate, PrivSalesView, PrivSalesCreate,
	PrivSettingsView, PrivDashboardView}

// RolePrivileges is the declarative authorization table.
var RolePrivileges = map[string][]string{
	RoleOwner:   append(append([]string{}, everyRole...), PrivProcurementApprove, PrivProcurementReceive),
	RoleAdmin:   append(append([]string{}, everyRole...), PrivProcurementApprove, PrivProcurementReceive, PrivSettingsUpdate, PrivUserManage, PrivExportRun, PrivInventoryImport),
	RoleManager: append(append([]string{}, everyRole...), PrivInventoryImport),
	RoleStaff:   append([]string{}, everyRole...),
}

// RoleHasPrivilege answers an authorization decision point.
func RoleHasPrivilege(role, code string) bool {
	for _, p := range RolePrivileges[role] {
		if p == code {
			return true
		}
	}
	return false
}

// IsAssignableRole reports whether user management may grant role.
func IsAssignableRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}
