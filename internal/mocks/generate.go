// Package mocks provides mock implementations for testing the session layer.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the credential store port. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockStore := mocks.NewMockStore(ctrl)
//	mockStore.EXPECT().Save(gomock.Any(), store.KeyAccessToken, gomock.Any()).Return(nil)
package mocks

// Generate mock for the Store interface from the store package.
// This creates MockStore with methods for all Store interface methods:
// Save, Load, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=store_mock.go github.com/zamanivault/zamanivault-go/store Store
