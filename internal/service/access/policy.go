package access

import (
	"github.com/ougirez/volstat/internal/domain"
)

// Permission is a bit set of operations a role may perform.
type Permission uint8

const (
	PermViewStatistics Permission = 1 << iota
	PermExportStatistics
	PermUpload
	PermDelete
	PermManageTechnicalIssues
	PermManageAccounts
)

const (
	readOnly  = PermViewStatistics | PermExportStatistics
	manager   = readOnly | PermUpload | PermDelete
	techAdmin = manager | PermManageTechnicalIssues
	allPerms  = techAdmin | PermManageAccounts
)

var capabilities = map[domain.Role]Permission{
	domain.RoleExplorer:     readOnly,
	domain.RoleManager:      manager,
	domain.RoleTechAdmin:    techAdmin,
	domain.RoleDigitalAdmin: allPerms,
}

var permissionNames = []struct {
	perm Permission
	name string
}{
	{PermViewStatistics, "view_statistics"},
	{PermExportStatistics, "export_statistics"},
	{PermUpload, "upload"},
	{PermDelete, "delete"},
	{PermManageTechnicalIssues, "manage_technical_issues"},
	{PermManageAccounts, "manage_accounts"},
}

// Permissions returns the capability set of role. Roles outside the closed set get
// the explorer set.
func Permissions(role domain.Role) Permission {
	if p, ok := capabilities[role]; ok {
		return p
	}
	return capabilities[domain.RoleExplorer]
}

func Allowed(role domain.Role, perm Permission) bool {
	return Permissions(role).Has(perm)
}

func (p Permission) Has(perm Permission) bool {
	return perm != 0 && p&perm == perm
}

// Names lists the permissions in p in a stable order.
func Names(p Permission) []string {
	out := make([]string, 0, len(permissionNames))
	for _, pn := range permissionNames {
		if p.Has(pn.perm) {
			out = append(out, pn.name)
		}
	}
	return out
}
