package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/zamanivault/zamanivault-go/domain/auth"
	apperrors "github.com/zamanivault/zamanivault-go/errors"
	"github.com/zamanivault/zamanivault-go/internal/mocks"
	"github.com/zamanivault/zamanivault-go/store"
)

func testIdentity() auth.Identity {
	return auth.Identity{
		ID: "1", Name: "Test User", Email: "user@example.com",
		Role: auth.RoleUser, Subscription: auth.TierFree,
	}
}

// authOKBackend answers every call with a canned successful auth payload.
type authOKBackend struct{}

func newAuthOKBackend() authOKBackend { return authOKBackend{} }

func (authOKBackend) Do(_ context.Context, _, _ string, _, out any) error {
	resp, ok := out.(*authResponse)
	if !ok {
		return errors.New("unexpected response type")
	}
	id := testIdentity()
	resp.User = &id
	resp.Token = "access-1"
	resp.Refresh = "refresh-1"
	return nil
}

// noopBackend satisfies Backend for tests that must never hit the wire.
type noopBackend struct{}

func (noopBackend) Do(context.Context, string, string, any, any) error {
	return errors.New("unexpected network call")
}

func TestManager_Restore_StoreReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().Load(gomock.Any(), store.KeyIdentity).Return("", false, errors.New("disk gone"))

	mgr, err := NewManager(Options{Backend: noopBackend{}, Store: mockStore})
	require.NoError(t, err)

	err = mgr.Restore(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
	assert.False(t, mgr.IsAuthenticated())
}

func TestManager_Restore_AccessTokenReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	record, err := store.EncodeIdentity(testIdentity())
	require.NoError(t, err)

	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().Load(gomock.Any(), store.KeyIdentity).Return(record, true, nil)
	mockStore.EXPECT().Load(gomock.Any(), store.KeyAccessToken).Return("", false, errors.New("disk gone"))

	mgr, err := NewManager(Options{Backend: noopBackend{}, Store: mockStore})
	require.NoError(t, err)

	err = mgr.Restore(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

func TestManager_PersistFailureKeepsSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Every write fails; the in-memory session must survive regardless.
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().Load(gomock.Any(), gomock.Any()).Return("", false, nil).AnyTimes()
	mockStore.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full")).AnyTimes()

	fb := newAuthOKBackend()
	mgr, err := NewManager(Options{Backend: fb, Store: mockStore})
	require.NoError(t, err)

	identity, err := mgr.Login(context.Background(), "user@example.com", "password123")
	require.NoError(t, err, "storage trouble never fails the operation")
	assert.NotNil(t, identity)
	assert.True(t, mgr.IsAuthenticated())
}
