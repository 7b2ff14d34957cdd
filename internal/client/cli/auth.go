package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// describeAuthError turns server validation output into one line per field.
func describeAuthError(err error) error {
	apiErr, ok := client.AsAPIError(err)
	if !ok || len(apiErr.Fields) == 0 {
		return err
	}
	msg := apiErr.Message
	for _, f := range apiErr.Fields {
		msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
	}
	return errors.New(msg)
}

// Signup prompts for name, email and password, creates the account and
// starts a session with it. The password is wiped before returning.
func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Signup(ctx, name, email, password); err != nil {
		return describeAuthError(err)
	}

	printlnFn("Account created.")
	a.printProfile()
	return nil
}

// Login prompts for credentials and starts a session. The password is wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Login(ctx, email, password); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return errors.New("server unavailable, try again later")
		}
		return describeAuthError(err)
	}

	printlnFn("Login successful")
	a.printProfile()
	return nil
}

// Logout ends the session. The local state is cleared even if the store
// reports an error; the notice comes from the session subscription.
func (a *App) Logout(ctx context.Context) error {
	return a.authService.Logout(ctx)
}
