package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	plain := Validation("email is required")
	assert.Equal(t, "email is required", plain.Error())

	cause := stderrors.New("connection refused")
	wrapped := Network(cause)
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(cause, ErrCodeInternal, "something broke")

	assert.True(t, stderrors.Is(err, cause))

	var appErr *AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, ErrCodeInternal, appErr.Code)
}

func TestCredential_NormalizedMessage(t *testing.T) {
	causes := []error{
		stderrors.New("wrong password"),
		stderrors.New("user not found"),
		stderrors.New("invalid email format"),
	}

	for _, cause := range causes {
		err := Credential(cause)
		assert.Equal(t, CredentialMessage, err.Message)
		assert.True(t, IsCredential(err))
		// The cause survives for logging but never reaches the message.
		assert.True(t, stderrors.Is(err, cause))
	}
}

func TestConstructors_SetCodes(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
		code  ErrorCode
	}{
		{Validation("v"), IsValidation, ErrCodeValidation},
		{ValidationField("email", "bad"), IsValidation, ErrCodeValidation},
		{Credential(nil), IsCredential, ErrCodeCredential},
		{VerificationRequired("a@b.c"), IsVerificationRequired, ErrCodeVerificationRequired},
		{BackendContract("missing role"), IsBackendContract, ErrCodeBackendContract},
		{BackendContractf("bad role %q", "X"), IsBackendContract, ErrCodeBackendContract},
		{Network(stderrors.New("down")), IsNetwork, ErrCodeNetwork},
		{TokenExpired(stderrors.New("401")), IsTokenExpired, ErrCodeTokenExpired},
		{Conflict("duplicate"), IsConflict, ErrCodeConflict},
		{Internal("boom"), IsInternal, ErrCodeInternal},
		{Internalf("boom %d", 2), IsInternal, ErrCodeInternal},
	}

	for _, tt := range tests {
		assert.True(t, tt.check(tt.err), "%v", tt.err)
		assert.Equal(t, tt.code, GetCode(tt.err))
	}
}

func TestCheckers_RejectOtherCodes(t *testing.T) {
	err := Validation("v")
	assert.False(t, IsCredential(err))
	assert.False(t, IsNetwork(err))
	assert.False(t, IsValidation(nil))
	assert.False(t, IsValidation(stderrors.New("plain")))
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "m"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "m %d", 1))
}

func TestWrapped_CodeSurvivesFurtherWrapping(t *testing.T) {
	inner := TokenExpired(stderrors.New("refresh failed"))
	outer := fmt.Errorf("request aborted: %w", inner)

	assert.True(t, IsTokenExpired(outer))
	assert.Equal(t, ErrCodeTokenExpired, GetCode(outer))
}

func TestGetField(t *testing.T) {
	assert.Equal(t, "dormId", GetField(ValidationField("dormId", "required")))
	assert.Empty(t, GetField(Validation("no field")))
	assert.Empty(t, GetField(stderrors.New("plain")))
}
