package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input       string
		expected    Role
		expectError bool
	}{
		{input: "RESIDENT", expected: RoleResident},
		{input: "STAFF", expected: RoleStaff},
		{input: "resident", expected: RoleResident},
		{input: "  staff  ", expected: RoleStaff},
		{input: "ADMIN", expectError: true},
		{input: "", expectError: true},
	}

	for _, tt := range tests {
		role, err := ParseRole(tt.input)
		if tt.expectError {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, role)
	}
}

func TestNewSession_AllOrNothing(t *testing.T) {
	attrs := RoleAttributes{DormID: "dorm-a", RoomNumber: "101"}

	sess, err := NewSession("u1", "a@b.c", "Ada", "Lovelace", RoleResident, attrs, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", sess.DisplayName)
	assert.Equal(t, attrs, sess.Attributes)

	_, err = NewSession("", "a@b.c", "A", "B", RoleResident, attrs, "tok")
	assert.Error(t, err)
	_, err = NewSession("u1", "", "A", "B", RoleResident, attrs, "tok")
	assert.Error(t, err)
	_, err = NewSession("u1", "a@b.c", "A", "B", Role("ADMIN"), attrs, "tok")
	assert.Error(t, err)
	_, err = NewSession("u1", "a@b.c", "A", "B", RoleResident, attrs, "")
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", DisplayName(" Ada ", " Lovelace "))
	assert.Equal(t, "Ada", DisplayName("Ada", ""))
	assert.Equal(t, "Lovelace", DisplayName("", "Lovelace"))
	assert.Equal(t, "", DisplayName("", ""))
}

func TestDecodeClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := mintToken(t, jwt.MapClaims{
		"sub":   "u1",
		"email": "a@b.c",
		"exp":   exp.Unix(),
	})

	claims, err := DecodeClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.True(t, claims.ExpiresAt.Equal(exp))
}

func TestDecodeClaims_Malformed(t *testing.T) {
	_, err := DecodeClaims("")
	assert.Error(t, err)
	_, err = DecodeClaims("   ")
	assert.Error(t, err)
	_, err = DecodeClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenClaims_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		exp     time.Time
		expired bool
	}{
		{name: "future", exp: now.Add(time.Hour), expired: false},
		{name: "past", exp: now.Add(-time.Hour), expired: true},
		{name: "inside leeway window", exp: now.Add(10 * time.Second), expired: true},
		{name: "just outside leeway", exp: now.Add(31 * time.Second), expired: false},
		{name: "zero means expired", exp: time.Time{}, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := TokenClaims{ExpiresAt: tt.exp}
			assert.Equal(t, tt.expired, claims.Expired(now))
		})
	}
}

func TestDecodeClaims_MissingExpiryTreatedAsExpired(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "u1"})

	claims, err := DecodeClaims(token)
	require.NoError(t, err)
	assert.True(t, claims.Expired(time.Now()))
}

func TestAuthResult(t *testing.T) {
	ok := AuthResult{Status: StatusOK}
	assert.True(t, ok.OK())

	failed := Failure(assert.AnError)
	assert.False(t, failed.OK())
	assert.Equal(t, assert.AnError, failed.Err)
	assert.Nil(t, failed.Session)
}
