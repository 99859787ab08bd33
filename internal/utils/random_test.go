package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateRandomPassword(t *testing.T) {
	assert.Len(t, []rune(GenerateRandomPassword(12)), 12)
	assert.Empty(t, GenerateRandomPassword(0))
}

func TestGenerateUsernameFromChineseName(t *testing.T) {
	username := GenerateUsernameFromChineseName("王芳")
	assert.Regexp(t, regexp.MustCompile(`^w[a-z]*f[a-z]*[0-9]{1,3}$`), username)
}

func TestGenerateRandomStaffUser(t *testing.T) {
	user, err := GenerateRandomStaffUser("password", "nailsalon.gr")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleStaff, user.Role)
	assert.Equal(t, user.Username+"@nailsalon.gr", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password")))
}

func TestGenerateRandomCustomer(t *testing.T) {
	c := GenerateRandomCustomer()

	assert.Regexp(t, regexp.MustCompile(`^69[0-9]{8}$`), c.Phone)
	assert.NotEmpty(t, c.Name)
	assert.Contains(t, c.Email, "@example.com")
}

func TestPickRandomServiceIDs(t *testing.T) {
	services := []*domain.Service{{ID: 1}, {ID: 2}, {ID: 3}}

	for range 20 {
		ids := PickRandomServiceIDs(services, 2)
		require.NotEmpty(t, ids)
		assert.LessOrEqual(t, len(ids), 2)
		assert.Equal(t, ids, UniqueIDs(ids))
	}

	assert.Nil(t, PickRandomServiceIDs(nil, 2))
}
