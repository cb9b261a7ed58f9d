package dashboard

import "github.com/hostelhub/hostelhub/internal/rbac"

// PermissionView is a permission key with its display label.
type PermissionView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// RoleView is one row of the role settings table.
type RoleView struct {
	Role        string           `json:"role"`
	Description string           `json:"description"`
	Permissions []PermissionView `json:"permissions"`
}

// RoleTable renders the permission table for display, in role order.
func RoleTable() []RoleView {
	roles := rbac.Roles()
	out := make([]RoleView, 0, len(roles))
	for _, role := range roles {
		keys := rbac.PermissionsFor(role)
		perms := make([]PermissionView, 0, len(keys))
		for _, key := range keys {
			perms = append(perms, PermissionView{Key: key, Label: rbac.PermissionLabel(key)})
		}
		out = append(out, RoleView{Role: role.String(), Description: role.Description(), Permissions: perms})
	}
	return out
}
