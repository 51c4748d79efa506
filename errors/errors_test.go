package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(cause, ErrCodeNetwork, "backend unreachable")

	assert.Contains(t, err.Error(), "backend unreachable")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeNetwork, GetCode(err))
}

func TestPredicates_MatchOnlyTheirCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"credential", Credential("bad password"), ErrCodeCredential},
		{"unauthorized", Unauthorized("expired"), ErrCodeUnauthorized},
		{"validation", Validation("missing field"), ErrCodeValidation},
		{"network", Network("unreachable"), ErrCodeNetwork},
		{"conflict", Conflict("duplicate"), ErrCodeConflict},
		{"not found", NotFound("gone"), ErrCodeNotFound},
		{"server", Server("boom"), ErrCodeServer},
		{"internal", Internal("bug"), ErrCodeInternal},
	}

	predicates := map[ErrorCode]func(error) bool{
		ErrCodeCredential:   IsCredential,
		ErrCodeUnauthorized: IsUnauthorized,
		ErrCodeValidation:   IsValidation,
		ErrCodeNetwork:      IsNetwork,
		ErrCodeConflict:     IsConflict,
		ErrCodeNotFound:     IsNotFound,
		ErrCodeServer:       IsServer,
		ErrCodeInternal:     IsInternal,
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for code, predicate := range predicates {
				assert.Equal(t, code == tc.code, predicate(tc.err), "predicate for %s", code)
			}
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("login: %w", Unauthorized("expired"))
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNetwork(err))
}

func TestWrap_NilCause(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeNetwork, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrCodeNetwork, "ignored %d", 1))
}

func TestValidationField_CarriesField(t *testing.T) {
	err := ValidationField("email", "Email is required")
	require.True(t, IsValidation(err))
	assert.Equal(t, "email", GetField(err))
	assert.Equal(t, "Email is required", Reason(err))
}

func TestReason_HidesCauseChain(t *testing.T) {
	err := Wrap(stderrors.New("dial tcp: connection refused"), ErrCodeNetwork, "Backend unreachable")
	assert.Equal(t, "Backend unreachable", Reason(err))
}

func TestReason_Fallbacks(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "opaque failure", Reason(stderrors.New("opaque failure")))
}

func TestGetCode_NonAppError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(stderrors.New("plain")))
}
