// Package mocks provides mock implementations for testing the session core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the port interfaces. The mocks are generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	provider := mocks.NewMockIdentityProvider(ctrl)
//	provider.EXPECT().SignIn(gomock.Any(), "a@b.c", "pw").Return(cred, nil)
package mocks

// Generate mock for IdentityProvider interface from internal/ports.
// This creates MockIdentityProvider with methods for all interface methods:
// SignIn, SignUp, SignOut, Token, SendVerificationEmail, AwaitIdentity
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=identity_provider_mock.go github.com/tractify/tractify-go/internal/ports IdentityProvider

// Generate mock for SessionCache interface from internal/ports.
// This creates MockSessionCache with methods for all interface methods:
// Save, Load, Clear
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_cache_mock.go github.com/tractify/tractify-go/internal/ports SessionCache

// Generate mock for Navigator interface from internal/ports.
// This creates MockNavigator with methods for all interface methods:
// Go
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=navigator_mock.go github.com/tractify/tractify-go/internal/ports Navigator
