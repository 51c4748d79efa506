// Package auth contains domain-level types for identities and sessions.
// It is pure and free of transport/storage concerns.
package auth

// Role represents an application authorization role.
// Keep string form for easy persistence and wire encoding.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Tier represents a subscription tier.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierScholar Tier = "scholar"
)

// Valid reports whether the tier is one of the enumerated values.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium || t == TierScholar
}

// Identity represents the authenticated principal's profile record.
// ID is immutable once created; Role and Subscription are always one of
// the enumerated values on any identity accepted from the backend.
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Subscription Tier   `json:"subscription"`
	Avatar       string `json:"avatar,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// IsAdmin returns true if the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Validate checks the enumerated fields and the identifier.
func (i Identity) Validate() error {
	if i.ID == "" {
		return errEmptyID
	}
	if !i.Role.Valid() {
		return errInvalidRole
	}
	if !i.Subscription.Valid() {
		return errInvalidTier
	}
	return nil
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

const (
	errEmptyID     = fieldError("identity id is empty")
	errInvalidRole = fieldError("identity role is not a known value")
	errInvalidTier = fieldError("identity subscription tier is not a known value")
)

// ProfileUpdate carries the partial profile fields accepted by profile
// mutation. Nil fields are left untouched.
type ProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
	Subscription *Tier   `json:"subscription,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Avatar == nil && u.Subscription == nil
}

// Apply merges the update into a copy of the given identity.
// The identifier, role, and creation timestamp are never touched.
func (u ProfileUpdate) Apply(id Identity) Identity {
	if u.Name != nil {
		id.Name = *u.Name
	}
	if u.Email != nil {
		id.Email = *u.Email
	}
	if u.Avatar != nil {
		id.Avatar = *u.Avatar
	}
	if u.Subscription != nil {
		id.Subscription = *u.Subscription
	}
	return id
}
