package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffset(t *testing.T) {
	cases := map[string]int{
		"+00:00": 0,
		"-00:00": 0,
		"-08:00": -8 * 3600,
		"+05:30": 5*3600 + 30*60,
		"-03:45": -(3*3600 + 45*60),
		"+14:00": 14 * 3600,
		"+18:00": 18 * 3600,
	}
	for in, want := range cases {
		got, err := ParseOffset(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseOffset_Rejects(t *testing.T) {
	for _, in := range []string{"", "08:00", "+8:00", "+08:0", "+08:60", "+19:00", "+18:30", "UTC", "+08:00Z"} {
		_, err := ParseOffset(in)
		assert.ErrorIs(t, err, ErrInvalidOffset, in)
		assert.False(t, ValidOffset(in), in)
	}
}

func TestNamedOffset_Location(t *testing.T) {
	n := &NamedOffset{Offset: "-05:00"}
	loc, err := n.Location()
	require.NoError(t, err)
	_, secs := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -5*3600, secs)
}

func TestUser_Authorities(t *testing.T) {
	u := &User{Roles: []Role{{Name: RoleUser}, {Name: RoleAdmin}}}
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, u.Authorities())
	assert.True(t, u.HasRole(RoleAdmin))
	assert.False(t, (&User{}).HasRole(RoleAdmin))

	var nilUser *User
	assert.Nil(t, nilUser.Authorities())
}
