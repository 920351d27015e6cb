package storefront

import (
	"context"
	"strings"

	"storefront/internal/contract"
)

// SignIn logs in and starts the session, restoring the persisted cart.
func (a *App) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return required("email")
	}
	if password == "" {
		return required("password")
	}
	resp, err := a.api.Login(ctx, contract.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	return a.gate.SignIn(ctx, resp.Token, email)
}

// SignOut ends the session and discards the cart.
func (a *App) SignOut(ctx context.Context) {
	a.gate.SignOut(ctx)
}

// Register creates an account. It does not sign in.
func (a *App) Register(ctx context.Context, req contract.RegisterRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Address.Street = strings.TrimSpace(req.Address.Street)
	req.Address.City = strings.TrimSpace(req.Address.City)
	req.Address.Department = strings.TrimSpace(req.Address.Department)
	req.Address.Description = strings.TrimSpace(req.Address.Description)
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"email", req.Email},
		{"password", req.Password},
		{"street", req.Address.Street},
		{"city", req.Address.City},
		{"department", req.Address.Department},
		{"description", req.Address.Description},
	} {
		if f.value == "" {
			return "", required(f.name)
		}
	}
	ack, err := a.api.Register(ctx, req)
	if err != nil {
		return "", err
	}
	return ack.Message, nil
}

// RequestPasswordReset asks the backend to mail a reset code.
func (a *App) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", required("email")
	}
	ack, err := a.api.RequestPasswordReset(ctx, contract.ResetRequest{Email: email})
	if err != nil {
		return "", err
	}
	return ack.Message, nil
}

// ResetPassword sets a new password using the mailed code.
func (a *App) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	switch {
	case email == "":
		return "", required("email")
	case code == "":
		return "", required("reset code")
	case newPassword == "":
		return "", required("new password")
	}
	ack, err := a.api.ResetPassword(ctx, contract.ResetConfirm{Email: email, ResetCode: code, NewPassword: newPassword})
	if err != nil {
		return "", err
	}
	return ack.Message, nil
}
