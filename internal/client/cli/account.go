package cli

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dmitrijs2005/hubauth/internal/client/client"
	"github.com/dmitrijs2005/hubauth/internal/client/services"
	"github.com/dmitrijs2005/hubauth/internal/common"
)

// WhoAmI prints the stored session and what the access token says about it.
func (a *App) WhoAmI(ctx context.Context) error {
	s := a.session.Current()
	if s == nil {
		a.println(services.UserMessage(services.ActionUserInfo, services.ErrNotLoggedIn))
		return services.ErrNotLoggedIn
	}

	a.println("Email:", s.Email)
	claims, err := a.session.Claims()
	if err != nil {
		a.log.Debug(ctx, "access token is not a readable JWT", "error", err)
		return nil
	}
	if claims.Subject != "" {
		a.println("User ID:", claims.Subject)
	}
	if !claims.ExpiresAt.IsZero() {
		state := "valid until"
		if claims.Expired(time.Now()) {
			state = "expired at"
		}
		a.println("Token", state, claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// Profile fetches the account from the server and prints it.
func (a *App) Profile(ctx context.Context) error {
	u, err := a.authService.UserInfo(ctx)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) printUser(u *client.User) {
	a.println("Email:", u.Email)
	if u.FirstName != "" || u.LastName != "" {
		a.println("Name:", u.FirstName, u.LastName)
	}
	keys := make([]string, 0, len(u.Extra))
	for k := range u.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("%s: %s\n", k, u.Extra[k])
	}
}

// UpdateProfile prompts for a new first and last name. A blank answer keeps
// the current value.
func (a *App) UpdateProfile(ctx context.Context) error {
	first, err := getSimpleText(a.reader, "First name (blank to keep)", a.out)
	if err != nil {
		return err
	}
	last, err := getSimpleText(a.reader, "Last name (blank to keep)", a.out)
	if err != nil {
		return err
	}
	return a.authService.UpdateUser(ctx, client.UserUpdate{FirstName: first, LastName: last})
}

func (a *App) ChangePassword(ctx context.Context) error {
	current, err := a.readSecret("Current password")
	if err != nil {
		return err
	}
	password, err := a.readSecret("New password")
	if err != nil {
		return err
	}
	a.printPasswordChecklist(password)
	confirmation, err := a.readSecret("Confirm new password")
	if err != nil {
		return err
	}
	return a.authService.ChangePassword(ctx, current, password, confirmation)
}

// errDeleteAborted is returned when the user declines the final prompt.
var errDeleteAborted = errors.New("account deletion aborted")

// DeleteAccount asks for the password, a typed confirmation and an optional
// reason, then deletes the account.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println(services.UserMessage(services.ActionDeleteAccount, services.ErrNotLoggedIn))
		return services.ErrNotLoggedIn
	}

	password, err := a.readSecret("Password")
	if err != nil {
		return err
	}
	confirmation, err := getSimpleText(a.reader, "Type DELETE to confirm", a.out)
	if err != nil {
		return err
	}
	reason, err := getSimpleText(a.reader, "Reason (optional)", a.out)
	if err != nil {
		return err
	}
	sure, err := getConfirm(a.reader, "This cannot be undone. Delete account "+common.MaskEmail(a.view.Email())+"?", a.out)
	if err != nil {
		return err
	}
	if !sure {
		a.println("Nothing was deleted.")
		return errDeleteAborted
	}

	if err := a.authService.DeleteAccount(ctx, password, confirmation, reason); err != nil {
		return err
	}
	a.println("Account deleted.")
	return nil
}
