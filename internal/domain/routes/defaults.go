package routes

import "github.com/clinova/platform/internal/domain/identity"

// Role groupings reused across the default table. Shared slices are never
// mutated after init.
var (
	clinicRoles = []identity.CanonicalRole{
		identity.RoleClinicStaff,
		identity.RoleClinicOwner,
		identity.RoleClinicAdmin,
		identity.RoleSuperAdmin,
	}
	clinicManagementRoles = []identity.CanonicalRole{
		identity.RoleClinicOwner,
		identity.RoleClinicAdmin,
		identity.RoleSuperAdmin,
	}
	salesRoles = []identity.CanonicalRole{
		identity.RoleSalesStaff,
		identity.RoleClinicAdmin,
		identity.RoleSuperAdmin,
	}
	authenticatedRoles = []identity.CanonicalRole{
		identity.RoleCustomerFree,
		identity.RoleCustomerPremium,
		identity.RoleCustomerClinical,
		identity.RoleCustomer,
		identity.RoleClinicStaff,
		identity.RoleClinicOwner,
		identity.RoleClinicAdmin,
		identity.RoleSalesStaff,
		identity.RoleSuperAdmin,
	}
	premiumRoles = []identity.CanonicalRole{
		identity.RoleCustomerPremium,
		identity.RoleCustomerClinical,
		identity.RoleClinicStaff,
		identity.RoleClinicOwner,
		identity.RoleClinicAdmin,
		identity.RoleSuperAdmin,
	}
)

// DefaultTable returns the platform's route permission table. Rules are
// declared most-specific-first; NewTable enforces that ordering.
func DefaultTable() (*Table, error) {
	return NewTable([]Rule{
		{Pattern: "/clinic/settings", AllowedRoles: clinicManagementRoles, RedirectTarget: "/clinic"},
		{Pattern: "/clinic", AllowedRoles: clinicRoles},
		{Pattern: "/sales", AllowedRoles: salesRoles},
		{Pattern: "/admin", AllowedRoles: []identity.CanonicalRole{identity.RoleSuperAdmin}},
		{Pattern: "/premium", AllowedRoles: premiumRoles, RedirectTarget: "/pricing"},
		{Pattern: "/dashboard", AllowedRoles: authenticatedRoles},
		{Pattern: "/profile", AllowedRoles: authenticatedRoles},
		{Pattern: "/settings", AllowedRoles: authenticatedRoles},
	})
}

// LandingPage returns the default post-login destination for a role. Used by
// the login flow after session issuance; owned here alongside the permission
// table so the two stay consistent.
func LandingPage(role identity.CanonicalRole) string {
	switch role {
	case identity.RoleSuperAdmin:
		return "/admin"
	case identity.RoleClinicAdmin, identity.RoleClinicOwner, identity.RoleClinicStaff:
		return "/clinic"
	case identity.RoleSalesStaff:
		return "/sales"
	case identity.RoleCustomerFree, identity.RoleCustomerPremium,
		identity.RoleCustomerClinical, identity.RoleCustomer:
		return "/dashboard"
	default:
		return "/"
	}
}
