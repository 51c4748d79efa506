package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAndTier_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())

	assert.True(t, TierFree.Valid())
	assert.True(t, TierPremium.Valid())
	assert.True(t, TierScholar.Valid())
	assert.False(t, Tier("gold").Valid())
}

func TestIdentity_Validate(t *testing.T) {
	valid := Identity{ID: "1", Role: RoleUser, Subscription: TierFree}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		id   Identity
	}{
		{"empty id", Identity{Role: RoleUser, Subscription: TierFree}},
		{"bad role", Identity{ID: "1", Role: "root", Subscription: TierFree}},
		{"bad tier", Identity{ID: "1", Role: RoleUser, Subscription: "gold"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.id.Validate())
		})
	}
}

func TestIdentity_IsAdmin(t *testing.T) {
	assert.True(t, Identity{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Identity{Role: RoleUser}.IsAdmin())
}

func TestProfileUpdate_Apply(t *testing.T) {
	base := Identity{
		ID: "1", Name: "Old Name", Email: "old@example.com",
		Role: RoleUser, Subscription: TierFree, CreatedAt: "2024-01-01T00:00:00Z",
	}

	name := "New Name"
	tier := TierPremium
	updated := ProfileUpdate{Name: &name, Subscription: &tier}.Apply(base)

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, TierPremium, updated.Subscription)
	assert.Equal(t, "old@example.com", updated.Email, "untouched fields carry over")
	assert.Equal(t, "1", updated.ID)
	assert.Equal(t, RoleUser, updated.Role)
	assert.Equal(t, "2024-01-01T00:00:00Z", updated.CreatedAt)

	// The receiver is a copy; the original identity is untouched.
	assert.Equal(t, "Old Name", base.Name)
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())
	email := "x@example.com"
	assert.False(t, ProfileUpdate{Email: &email}.IsEmpty())
}
