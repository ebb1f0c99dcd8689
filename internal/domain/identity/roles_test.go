package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CanonicalSpellings(t *testing.T) {
	tests := []struct {
		raw  string
		want CanonicalRole
	}{
		{"public", RolePublic},
		{"guest", RoleGuest},
		{"customer", RoleCustomer},
		{"customer_free", RoleCustomerFree},
		{"customer_premium", RoleCustomerPremium},
		{"customer_clinical", RoleCustomerClinical},
		{"clinic_staff", RoleClinicStaff},
		{"clinic_owner", RoleClinicOwner},
		{"clinic_admin", RoleClinicAdmin},
		{"sales_staff", RoleSalesStaff},
		{"super_admin", RoleSuperAdmin},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}

func TestNormalize_HistoricalVariants(t *testing.T) {
	tests := []struct {
		raw  string
		want CanonicalRole
	}{
		// Case folding and separator collapsing.
		{"Premium_Customer", RoleCustomerPremium},
		{"PREMIUM CUSTOMER", RoleCustomerPremium},
		{"premium-customer", RoleCustomerPremium},
		{"premiumCustomer", RoleCustomerPremium},
		{"SuperAdmin", RoleSuperAdmin},
		{"super--admin", RoleSuperAdmin},
		{" super_admin ", RoleSuperAdmin},
		{"root", RoleSuperAdmin},
		// Word-order variants written by older services.
		{"free_user", RoleCustomerFree},
		{"free_customer", RoleCustomerFree},
		{"user_free", RoleCustomerFree},
		{"premium_user", RoleCustomerPremium},
		{"clinical_customer", RoleCustomerClinical},
		{"clinical_user", RoleCustomerClinical},
		{"ClinicalUser", RoleCustomerClinical},
		// Short forms.
		{"staff", RoleClinicStaff},
		{"owner", RoleClinicOwner},
		{"sales", RoleSalesStaff},
		{"sales_user", RoleSalesStaff},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}

// Empty input means no identity at all; an unrecognized non-empty spelling
// still belongs to a signed-up customer. The two fallbacks must stay distinct.
func TestNormalize_FallbackAsymmetry(t *testing.T) {
	assert.Equal(t, RolePublic, Normalize(""))
	assert.Equal(t, RolePublic, Normalize("   "))
	assert.Equal(t, RolePublic, Normalize("---"))

	assert.Equal(t, RoleCustomerFree, Normalize("totally_made_up"))
	assert.Equal(t, RoleCustomerFree, Normalize("vip"))
	assert.Equal(t, RoleCustomerFree, Normalize("Customer2"))
}

func TestNormalize_IsTotal(t *testing.T) {
	// Every input, however mangled, must yield a member of the canonical set.
	canonical := map[CanonicalRole]bool{
		RolePublic: true, RoleGuest: true,
		RoleCustomer: true, RoleCustomerFree: true, RoleCustomerPremium: true, RoleCustomerClinical: true,
		RoleClinicStaff: true, RoleClinicOwner: true, RoleClinicAdmin: true,
		RoleSalesStaff: true, RoleSuperAdmin: true,
	}
	inputs := []string{"", "x", "日本語", "__", "Clinic Owner!!", "a-b-c", "123", "nil"}
	for _, raw := range inputs {
		assert.True(t, canonical[Normalize(raw)], "Normalize(%q) = %q not canonical", raw, Normalize(raw))
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	// Normalizing a canonical role yields itself; round-tripping is stable.
	for _, raw := range []string{"premium customer", "SuperAdmin", "free_user", "unknown_thing"} {
		first := Normalize(raw)
		assert.Equal(t, first, Normalize(string(first)), "normalize not stable for %q", raw)
	}
}

func TestCollapseRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Premium-Customer", "premium_customer"},
		{"premiumCustomer", "premium_customer"},
		{"  clinic   staff  ", "clinic_staff"},
		{"CLINIC_OWNER", "clinic_owner"},
		{"a.b,c", "a_b_c"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, collapseRole(tc.in), "collapseRole(%q)", tc.in)
	}
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, IsClinicSide(RoleClinicStaff))
	assert.True(t, IsClinicSide(RoleSalesStaff))
	assert.False(t, IsClinicSide(RoleSuperAdmin))
	assert.False(t, IsClinicSide(RoleCustomerPremium))

	assert.True(t, IsElevated(RoleSuperAdmin))
	assert.True(t, IsElevated(RoleClinicAdmin))
	assert.False(t, IsElevated(RoleClinicOwner))

	assert.True(t, CanAccessSales(RoleSalesStaff))
	assert.True(t, CanAccessSales(RoleClinicAdmin))
	assert.True(t, CanAccessSales(RoleSuperAdmin))
	assert.False(t, CanAccessSales(RoleClinicOwner))
	assert.False(t, CanAccessSales(RoleCustomerClinical))
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierFree, TierFor(RolePublic))
	assert.Equal(t, TierFree, TierFor(RoleCustomer))
	assert.Equal(t, TierFree, TierFor(RoleCustomerFree))
	assert.Equal(t, TierPremium, TierFor(RoleCustomerPremium))
	assert.Equal(t, TierClinical, TierFor(RoleCustomerClinical))
	assert.Equal(t, TierClinical, TierFor(RoleClinicOwner))
	assert.Equal(t, TierClinical, TierFor(RoleSuperAdmin))
}

func TestAuthContext_HasClinicScope(t *testing.T) {
	clinic := "clinic-1"
	empty := ""
	assert.True(t, AuthContext{ClinicID: &clinic}.HasClinicScope())
	assert.False(t, AuthContext{ClinicID: &empty}.HasClinicScope())
	assert.False(t, AuthContext{}.HasClinicScope())
}
