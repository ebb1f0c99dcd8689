package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/platform/internal/domain/identity"
)

func mustTable(t *testing.T, rules []Rule) *Table {
	t.Helper()
	table, err := NewTable(rules)
	require.NoError(t, err)
	return table
}

func TestNewTable_RejectsEmptyRoleSet(t *testing.T) {
	_, err := NewTable([]Rule{
		{Pattern: "/admin", AllowedRoles: nil},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed-role set must not be empty")
}

func TestNewTable_RejectsInvalidPattern(t *testing.T) {
	_, err := NewTable([]Rule{
		{Pattern: "admin", AllowedRoles: []identity.CanonicalRole{identity.RoleSuperAdmin}},
	})
	require.Error(t, err)
}

func TestNewTable_RejectsShadowedRule(t *testing.T) {
	// /clinic declared before /clinic/settings makes the latter unreachable.
	_, err := NewTable([]Rule{
		{Pattern: "/clinic", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicStaff}},
		{Pattern: "/clinic/settings", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicOwner}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestNewTable_AcceptsMostSpecificFirst(t *testing.T) {
	mustTable(t, []Rule{
		{Pattern: "/clinic/settings", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicOwner}},
		{Pattern: "/clinic", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicStaff, identity.RoleClinicOwner}},
	})
}

func TestTable_FirstMatchWins(t *testing.T) {
	table := mustTable(t, []Rule{
		{Pattern: "/clinic/settings", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicOwner}},
		{Pattern: "/clinic", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicStaff, identity.RoleClinicOwner}},
	})

	// Staff may visit the clinic area but not the settings sub-tree.
	assert.True(t, table.HasPermission(identity.RoleClinicStaff, "/clinic"))
	assert.True(t, table.HasPermission(identity.RoleClinicStaff, "/clinic/dashboard"))
	assert.False(t, table.HasPermission(identity.RoleClinicStaff, "/clinic/settings"))
	assert.False(t, table.HasPermission(identity.RoleClinicStaff, "/clinic/settings/billing"))
	assert.True(t, table.HasPermission(identity.RoleClinicOwner, "/clinic/settings"))
}

func TestTable_SegmentBoundaryMatching(t *testing.T) {
	table := mustTable(t, []Rule{
		{Pattern: "/admin", AllowedRoles: []identity.CanonicalRole{identity.RoleSuperAdmin}},
	})

	// Prefix matching is per path segment: /administration is a different route.
	assert.False(t, table.HasPermission(identity.RoleCustomerFree, "/admin"))
	assert.False(t, table.HasPermission(identity.RoleCustomerFree, "/admin/users"))
	assert.True(t, table.HasPermission(identity.RoleCustomerFree, "/administration"))
}

func TestTable_UnlistedPathsArePermissive(t *testing.T) {
	table := mustTable(t, []Rule{
		{Pattern: "/admin", AllowedRoles: []identity.CanonicalRole{identity.RoleSuperAdmin}},
	})
	assert.True(t, table.HasPermission(identity.RolePublic, "/about"))
	assert.True(t, table.HasPermission(identity.RoleGuest, "/"))
	assert.Equal(t, "", table.RedirectFor(identity.RolePublic, "/about"))
}

func TestTable_EmptyAndGuestRolesActAsPublic(t *testing.T) {
	table := mustTable(t, []Rule{
		{Pattern: "/dashboard", AllowedRoles: []identity.CanonicalRole{identity.RoleCustomerFree}},
		{Pattern: "/open", AllowedRoles: []identity.CanonicalRole{identity.RolePublic}},
	})
	assert.False(t, table.HasPermission(identity.RoleGuest, "/dashboard"))
	assert.False(t, table.HasPermission(identity.CanonicalRole(""), "/dashboard"))
	assert.True(t, table.HasPermission(identity.RoleGuest, "/open"))
	assert.True(t, table.HasPermission(identity.CanonicalRole(""), "/open"))
}

func TestTable_RedirectFor(t *testing.T) {
	table := mustTable(t, []Rule{
		{Pattern: "/premium", AllowedRoles: []identity.CanonicalRole{identity.RoleCustomerPremium}, RedirectTarget: "/pricing"},
		{Pattern: "/clinic", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicOwner}},
	})

	assert.Equal(t, "/pricing", table.RedirectFor(identity.RoleCustomerFree, "/premium"))
	assert.Equal(t, UnauthorizedPath, table.RedirectFor(identity.RoleCustomerFree, "/clinic"))
	assert.Equal(t, "", table.RedirectFor(identity.RoleCustomerPremium, "/premium"))
	assert.Equal(t, "", table.RedirectFor(identity.RoleClinicOwner, "/clinic/anything"))
}

func TestTable_LocaleStripping(t *testing.T) {
	table := mustTable(t, []Rule{
		{Pattern: "/clinic", AllowedRoles: []identity.CanonicalRole{identity.RoleClinicOwner}},
	})

	// The same logical route exists under every locale prefix.
	assert.False(t, table.HasPermission(identity.RoleCustomerFree, "/th/clinic/dashboard"))
	assert.False(t, table.HasPermission(identity.RoleCustomerFree, "/en/clinic"))
	assert.False(t, table.HasPermission(identity.RoleCustomerFree, "/clinic"))
	assert.True(t, table.HasPermission(identity.RoleClinicOwner, "/th/clinic/dashboard"))
	assert.Equal(t, UnauthorizedPath, table.RedirectFor(identity.RoleCustomerFree, "/th/clinic/dashboard"))
}

func TestStripLocale(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/en/dashboard", "/dashboard"},
		{"/th/clinic/settings", "/clinic/settings"},
		{"/fil/about", "/about"},
		{"/en", "/"},
		{"/dashboard", "/dashboard"},
		// "api" is a route name, not a locale.
		{"/api/profile", "/api/profile"},
		{"/API/profile", "/API/profile"},
		// Too long or non-alphabetic first segments are left alone.
		{"/blog/post", "/blog/post"},
		{"/v2/things", "/v2/things"},
		{"/", "/"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, StripLocale(tc.path), "StripLocale(%q)", tc.path)
	}
}

func TestLocale(t *testing.T) {
	assert.Equal(t, "en", Locale("/en/dashboard"))
	assert.Equal(t, "th", Locale("/th"))
	assert.Equal(t, "", Locale("/dashboard"))
	assert.Equal(t, "", Locale("/api/profile"))
}

func TestDefaultTable(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)

	assert.False(t, table.HasPermission(identity.RoleCustomerFree, "/clinic/dashboard"))
	assert.True(t, table.HasPermission(identity.RoleClinicStaff, "/clinic/dashboard"))
	assert.False(t, table.HasPermission(identity.RoleClinicStaff, "/clinic/settings"))
	assert.True(t, table.HasPermission(identity.RoleClinicOwner, "/clinic/settings"))
	assert.True(t, table.HasPermission(identity.RoleSuperAdmin, "/admin/profiles"))
	assert.False(t, table.HasPermission(identity.RoleClinicAdmin, "/admin"))
	assert.True(t, table.HasPermission(identity.RoleClinicAdmin, "/sales"))
	assert.True(t, table.HasPermission(identity.RoleCustomer, "/dashboard"))
	assert.False(t, table.HasPermission(identity.RolePublic, "/dashboard"))

	assert.Equal(t, "/pricing", table.RedirectFor(identity.RoleCustomerFree, "/premium"))
	assert.Equal(t, "/clinic", table.RedirectFor(identity.RoleClinicStaff, "/clinic/settings"))
}

func TestLandingPage(t *testing.T) {
	assert.Equal(t, "/admin", LandingPage(identity.RoleSuperAdmin))
	assert.Equal(t, "/clinic", LandingPage(identity.RoleClinicStaff))
	assert.Equal(t, "/sales", LandingPage(identity.RoleSalesStaff))
	assert.Equal(t, "/dashboard", LandingPage(identity.RoleCustomerPremium))
	assert.Equal(t, "/", LandingPage(identity.RolePublic))
}
