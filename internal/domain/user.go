package domain

import "time"

// Role determines the scope of business access a user has.
type Role int

const (
	// RoleSuperAdmin sees every dashboard-enabled business.
	RoleSuperAdmin Role = 0
	// RoleRegular sees only businesses explicitly assigned to the profile.
	RoleRegular Role = 1
)

func (r Role) String() string {
	if r == RoleSuperAdmin {
		return "super_admin"
	}
	return "regular"
}

// ParseRole converts a nullable role column into a Role.
// A missing role is treated as a regular user.
func ParseRole(v *int) Role {
	if v != nil && *v == int(RoleSuperAdmin) {
		return RoleSuperAdmin
	}
	return RoleRegular
}

// Identity represents an authenticated user identity from the identity provider.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
	CreatedAt time.Time
}

// Profile is the persisted profile record backing an identity.
type Profile struct {
	ID    string
	Email string
	Role  Role
}

// AccessibleBusiness is a tenant record the user may act on.
type AccessibleBusiness struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// AuthenticatedUser is the fully resolved per-request user: identity,
// role, and the business set the role grants. It is never persisted
// beyond cache lifetime.
type AuthenticatedUser struct {
	Identity        Identity
	Role            Role
	Businesses      []AccessibleBusiness
	CurrentBusiness *AccessibleBusiness
}

// HasBusiness reports whether the user may act on the given business.
func (u *AuthenticatedUser) HasBusiness(businessID string) bool {
	for i := range u.Businesses {
		if u.Businesses[i].ID == businessID {
			return true
		}
	}
	return false
}
