package models

const (
	RoleAdmin    = "admin"
	RolePartner  = "partner"
	RoleMerchant = "merchant"
)

// Permission constants
const (
	// Onboarding permissions
	PermissionOnboardingRead  = "onboarding:read"
	PermissionOnboardingWrite = "onboarding:write"

	// Calculator permissions
	PermissionCalculatorUse = "calculator:use"

	// Admin permissions
	PermissionBulkWrite    = "admin:bulk"
	PermissionMerchantLink = "admin:merchant-links"
	PermissionTeamWrite    = "admin:team"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePartner, RoleMerchant:
		return true
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionOnboardingRead,
			PermissionOnboardingWrite,
			PermissionCalculatorUse,
			PermissionBulkWrite,
			PermissionMerchantLink,
			PermissionTeamWrite,
		}
	case RolePartner:
		return []string{
			PermissionOnboardingRead,
			PermissionOnboardingWrite,
			PermissionCalculatorUse,
		}
	case RoleMerchant:
		return []string{
			PermissionOnboardingRead,
			PermissionOnboardingWrite,
		}
	default:
		return []string{}
	}
}

// HasPermission checks whether role grants permission.
func HasPermission(role, permission string) bool {
	for _, p := range GetDefaultPermissions(role) {
		if p == permission {
			return true
		}
	}
	return false
}
