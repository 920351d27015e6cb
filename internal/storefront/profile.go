package storefront

import (
	"context"
	"strings"

	"storefront/internal/contract"
	"storefront/internal/domain"
)

// Profile fetches the signed-in user's profile. A failure may end the
// session; see session.Gate.HandleProfileError.
func (a *App) Profile(ctx context.Context) (domain.User, error) {
	u, err := a.api.GetProfile(ctx)
	if err != nil {
		a.gate.HandleProfileError(ctx, err)
		return domain.User{}, err
	}
	return u, nil
}

// UpdateProfile sends only the fields of edited that differ from current,
// the profile the edit started from, and returns the profile as re-fetched
// afterwards. Every field is required.
func (a *App) UpdateProfile(ctx context.Context, current, edited domain.User) (domain.User, error) {
	edited = trimUser(edited)
	for _, f := range []struct{ name, value string }{
		{"name", edited.Name},
		{"email", edited.Email},
		{"street", edited.Address.Street},
		{"city", edited.Address.City},
		{"department", edited.Address.Department},
		{"description", edited.Address.Description},
	} {
		if f.value == "" {
			return domain.User{}, required(f.name)
		}
	}

	upd := contract.Diff(current, edited)
	if upd.Empty() {
		return current, ErrNoChanges
	}
	if _, err := a.api.UpdateProfile(ctx, upd); err != nil {
		return domain.User{}, err
	}
	return a.Profile(ctx)
}

func trimUser(u domain.User) domain.User {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	u.Address.Street = strings.TrimSpace(u.Address.Street)
	u.Address.City = strings.TrimSpace(u.Address.City)
	u.Address.Department = strings.TrimSpace(u.Address.Department)
	u.Address.Description = strings.TrimSpace(u.Address.Description)
	return u
}
