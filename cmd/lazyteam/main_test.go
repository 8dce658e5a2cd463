package main

import (
	"context"
	"errors"
	"testing"

	"github.com/Joseda-hg/lazyteam/internal/api"
	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/Joseda-hg/lazyteam/internal/session"
)

type authFunc func(ctx context.Context, employeeID, password string) (model.User, error)

func (f authFunc) Login(ctx context.Context, employeeID, password string) (model.User, error) {
	return f(ctx, employeeID, password)
}

func TestLoginWithPasswordBlankEmployeeID(t *testing.T) {
	manager := session.NewManager(authFunc(func(context.Context, string, string) (model.User, error) {
		t.Fatalf("authenticator should not be called")
		return model.User{}, nil
	}), nil)
	defer manager.Close()

	err := loginWithPassword(manager, " ", "secret")
	if !errors.Is(err, session.ErrEmptyEmployeeID) {
		t.Fatalf("expected ErrEmptyEmployeeID, got %v", err)
	}
	if err.Error() == "login: " {
		t.Fatalf("expected a reason in %q", err.Error())
	}
}

func TestLoginWithPasswordUsesSessionMessage(t *testing.T) {
	manager := session.NewManager(authFunc(func(context.Context, string, string) (model.User, error) {
		return model.User{}, api.ErrUnauthorized
	}), nil)
	defer manager.Close()

	err := loginWithPassword(manager, "1001", "wrong")
	want := "login: " + session.IncorrectCredentialsMessage
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
}

func TestLoginWithPasswordSuccess(t *testing.T) {
	manager := session.NewManager(authFunc(func(_ context.Context, employeeID, _ string) (model.User, error) {
		return model.User{ID: employeeID}, nil
	}), nil)
	defer manager.Close()

	if err := loginWithPassword(manager, "1001", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if state := manager.State(); !state.LoggedIn() || state.CurrentUser.ID != "1001" {
		t.Fatalf("unexpected state %+v", state)
	}
}
