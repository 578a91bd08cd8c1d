// Package rbac gates routes by the role the upstream API assigned to the signed-in operator.
package rbac

import "strings"

// Roles known to the back office.
const (
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleDispatcher  = "dispatcher"
	RoleSalesperson = "salesperson"
	RoleDriver      = "driver"
)

// Route groups.
var (
	TripRoles    = []string{RoleAdmin, RoleManager, RoleDispatcher}
	POSRoles     = []string{RoleAdmin, RoleManager, RoleSalesperson}
	SaleEditRole = []string{RoleAdmin, RoleManager}
)

// NormalizeRole lower-cases and trims a role name.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
