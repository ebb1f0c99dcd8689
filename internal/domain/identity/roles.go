package identity

import "strings"

// CanonicalRole is one of a fixed, closed set of role identifiers used for
// route-level permission decisions. Profiles persist raw role strings in
// whatever spelling was current when the row was written; Normalize is the
// single conversion point between the two vocabularies.
type CanonicalRole string

const (
	RolePublic           CanonicalRole = "public"
	RoleGuest            CanonicalRole = "guest"
	RoleCustomerFree     CanonicalRole = "customer_free"
	RoleCustomerPremium  CanonicalRole = "customer_premium"
	RoleCustomerClinical CanonicalRole = "customer_clinical"
	RoleCustomer         CanonicalRole = "customer"
	RoleClinicStaff      CanonicalRole = "clinic_staff"
	RoleClinicOwner      CanonicalRole = "clinic_owner"
	RoleClinicAdmin      CanonicalRole = "clinic_admin"
	RoleSalesStaff       CanonicalRole = "sales_staff"
	RoleSuperAdmin       CanonicalRole = "super_admin"
)

// Tier is the service tier derived from a canonical role.
type Tier string

const (
	TierFree     Tier = "free"
	TierPremium  Tier = "premium"
	TierClinical Tier = "clinical"
)

// roleAliases maps collapsed raw spellings to canonical roles. Keys must be
// in collapsed form (lowercase, single underscore separators); Normalize
// collapses its input before the lookup. Entries cover the canonical
// spellings themselves plus every historical variant seen in profile rows.
var roleAliases = map[string]CanonicalRole{
	"public": RolePublic,
	"guest":  RoleGuest,

	"customer":      RoleCustomer,
	"customer_free": RoleCustomerFree,
	"free_user":     RoleCustomerFree,
	"free_customer": RoleCustomerFree,
	"user_free":     RoleCustomerFree,

	"customer_premium": RoleCustomerPremium,
	"premium_customer": RoleCustomerPremium,
	"premium_user":     RoleCustomerPremium,

	"customer_clinical": RoleCustomerClinical,
	"clinical_customer": RoleCustomerClinical,
	"clinical_user":     RoleCustomerClinical,

	"clinic_staff": RoleClinicStaff,
	"staff":        RoleClinicStaff,

	"clinic_owner": RoleClinicOwner,
	"owner":        RoleClinicOwner,

	"clinic_admin": RoleClinicAdmin,

	"sales_staff": RoleSalesStaff,
	"sales":       RoleSalesStaff,
	"sales_user":  RoleSalesStaff,

	"super_admin": RoleSuperAdmin,
	"superadmin":  RoleSuperAdmin,
	"root":        RoleSuperAdmin,
}

// Normalize maps an arbitrary raw role string to its canonical role. It is
// total: every input yields exactly one canonical role.
//
// Empty input maps to public; a non-empty spelling that matches no alias
// falls back to customer_free, not public. The asymmetry is deliberate
// policy: an unknown role on an existing profile still belongs to a signed-up
// customer, while a missing role means no identity at all.
func Normalize(raw string) CanonicalRole {
	collapsed := collapseRole(raw)
	if collapsed == "" {
		return RolePublic
	}
	if role, ok := roleAliases[collapsed]; ok {
		return role
	}
	return RoleCustomerFree
}

// collapseRole folds case and collapses camelCase boundaries, whitespace, and
// punctuation runs into single underscores: "Premium-Customer" and
// "premiumCustomer" both collapse to "premium_customer".
func collapseRole(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 4)

	prevLower := false
	pendingSep := false
	for _, r := range raw {
		switch {
		case r >= 'A' && r <= 'Z':
			if prevLower {
				pendingSep = true
			}
			fallthrough
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			lower := r
			if r >= 'A' && r <= 'Z' {
				lower = r + ('a' - 'A')
			}
			b.WriteRune(lower)
			prevLower = r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		default:
			// Whitespace and punctuation become a single separator.
			if b.Len() > 0 {
				pendingSep = true
			}
			prevLower = false
		}
	}
	return b.String()
}

// IsClinicSide reports whether the role belongs to clinic-side personnel
// (staff, owner, admin, or sales).
func IsClinicSide(role CanonicalRole) bool {
	switch role {
	case RoleClinicStaff, RoleClinicOwner, RoleClinicAdmin, RoleSalesStaff:
		return true
	default:
		return false
	}
}

// IsElevated reports whether the role grants administrative reach beyond a
// single clinic's day-to-day operations.
func IsElevated(role CanonicalRole) bool {
	return role == RoleSuperAdmin || role == RoleClinicAdmin
}

// CanAccessSales reports whether the role may use sales tooling. Checked by
// the sales wrapper in addition to its allow-list, as defense in depth.
func CanAccessSales(role CanonicalRole) bool {
	switch role {
	case RoleSalesStaff, RoleClinicAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// TierFor maps a canonical role to its service tier.
func TierFor(role CanonicalRole) Tier {
	switch role {
	case RoleCustomerPremium:
		return TierPremium
	case RoleCustomerClinical, RoleClinicStaff, RoleClinicOwner, RoleClinicAdmin, RoleSalesStaff, RoleSuperAdmin:
		return TierClinical
	default:
		return TierFree
	}
}
