package access

import (
	"testing"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCapabilityTable(t *testing.T) {
	tests := []struct {
		role    domain.Role
		allowed []Permission
		denied  []Permission
	}{
		{
			role:    domain.RoleExplorer,
			allowed: []Permission{PermViewStatistics, PermExportStatistics},
			denied:  []Permission{PermUpload, PermDelete, PermManageTechnicalIssues, PermManageAccounts},
		},
		{
			role:    domain.RoleManager,
			allowed: []Permission{PermViewStatistics, PermUpload, PermDelete},
			denied:  []Permission{PermManageTechnicalIssues, PermManageAccounts},
		},
		{
			role:    domain.RoleTechAdmin,
			allowed: []Permission{PermUpload, PermDelete, PermManageTechnicalIssues},
			denied:  []Permission{PermManageAccounts},
		},
		{
			role:    domain.RoleDigitalAdmin,
			allowed: []Permission{PermUpload, PermDelete, PermManageTechnicalIssues, PermManageAccounts},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, p := range tt.allowed {
				assert.True(t, Allowed(tt.role, p), "permission %v", Names(p))
			}
			for _, p := range tt.denied {
				assert.False(t, Allowed(tt.role, p), "permission %v", Names(p))
			}
		})
	}
}

func TestUnknownRoleIsExplorer(t *testing.T) {
	assert.Equal(t, Permissions(domain.RoleExplorer), Permissions(domain.Role("superuser")))
	assert.False(t, Allowed(domain.Role("superuser"), PermUpload))
}

func TestEveryRoleIsInTable(t *testing.T) {
	for _, r := range []domain.Role{domain.RoleExplorer, domain.RoleManager, domain.RoleTechAdmin, domain.RoleDigitalAdmin} {
		_, ok := capabilities[r]
		assert.True(t, ok, r)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"view_statistics", "export_statistics"}, Names(Permissions(domain.RoleExplorer)))
	assert.Len(t, Names(Permissions(domain.RoleDigitalAdmin)), 6)
	assert.False(t, Permission(0).Has(0))
}
