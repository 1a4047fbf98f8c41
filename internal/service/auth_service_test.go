package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tripledger/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "Alice")
	if alice.token == "" {
		t.Fatal("expected a token on register")
	}
	if alice.user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", alice.user.Email)
	}

	login, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "ALICE@example.com",
		Password: "password-Alice",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.User.ID != alice.user.ID {
		t.Errorf("expected user %s, got %s", alice.user.ID, login.Msg.User.ID)
	}

	me, err := env.auth.GetCurrentUser(ctx, authed(login.Msg.Token, &api.GetCurrentUserRequest{}))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.DisplayName != "Alice" {
		t.Errorf("expected Alice, got %q", me.Msg.User.DisplayName)
	}

	if _, err := env.auth.Logout(ctx, authed(login.Msg.Token, &api.LogoutRequest{})); err != nil {
		t.Errorf("Logout failed: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "Alice")

	tests := []struct {
		name string
		req  *api.RegisterRequest
		want connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "alice@example.com", DisplayName: "Alice", Password: "another-password"}, connect.CodeAlreadyExists},
		{"bad email", &api.RegisterRequest{Email: "not-an-email", DisplayName: "Bob", Password: "password-Bob"}, connect.CodeInvalidArgument},
		{"short password", &api.RegisterRequest{Email: "bob@example.com", DisplayName: "Bob", Password: "short"}, connect.CodeInvalidArgument},
		{"missing name", &api.RegisterRequest{Email: "bob@example.com", DisplayName: "  ", Password: "password-Bob"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	env := setupTestServer(t)
	env.register(t, "Alice")

	tests := []struct {
		name string
		req  *api.LoginRequest
		want connect.Code
	}{
		{"wrong password", &api.LoginRequest{Email: "alice@example.com", Password: "wrong-password"}, connect.CodeUnauthenticated},
		{"unknown email", &api.LoginRequest{Email: "nobody@example.com", Password: "password-Alice"}, connect.CodeUnauthenticated},
		{"empty password", &api.LoginRequest{Email: "alice@example.com"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestGetCurrentUserRequiresToken(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.auth.GetCurrentUser(context.Background(), connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.GetCurrentUser(context.Background(), authed("garbage", &api.GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}
