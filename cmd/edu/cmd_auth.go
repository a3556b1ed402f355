package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/licomnaklavy/edu-platform/internal/gateway"
	"github.com/licomnaklavy/edu-platform/internal/guard"
	"github.com/licomnaklavy/edu-platform/internal/nav"
)

// cmdLogin signs in and persists the session for later commands
func cmdLogin(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if o := a.guard.CheckEntry(context.Background()); o.Intent.Action == guard.ActionRedirect {
		fmt.Println("Already signed in. Run 'edu logout' to switch accounts.")
		return nil
	}

	email, err := argOrPrompt(args, 0, "Email")
	if err != nil {
		return err
	}
	password, err := promptRequired("Password")
	if err != nil {
		return err
	}

	o := a.guard.SubmitLogin(context.Background(), email, password)
	if o.Err != nil {
		if errors.Is(o.Err, gateway.ErrInvalidCredentials) {
			return fmt.Errorf("invalid email or password")
		}
		return fmt.Errorf("login: %w", o.Err)
	}

	fmt.Printf("Signed in as %s\n", o.User.Email)
	return nil
}

// cmdRegister creates an account and signs in
func cmdRegister(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if o := a.guard.CheckEntry(context.Background()); o.Intent.Action == guard.ActionRedirect {
		fmt.Println("Already signed in. Run 'edu logout' to switch accounts.")
		return nil
	}

	email, err := argOrPrompt(args, 0, "Email")
	if err != nil {
		return err
	}
	name, err := promptRequired("Name")
	if err != nil {
		return err
	}
	password, err := promptRequired("Password")
	if err != nil {
		return err
	}

	o := a.guard.SubmitRegister(context.Background(), email, password, name)
	if o.Err != nil {
		return fmt.Errorf("register: %w", o.Err)
	}

	fmt.Printf("Account created. Signed in as %s\n", o.User.Email)
	return nil
}

// cmdLogout clears the local session
func cmdLogout() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if !a.sessions.IsValid() {
		fmt.Println("Not signed in.")
		return nil
	}

	if o := a.guard.Logout(); o.Err != nil {
		return fmt.Errorf("logout: %w", o.Err)
	}
	fmt.Println("Signed out.")
	return nil
}

// cmdWhoami verifies the session against the backend and shows the user
func cmdWhoami() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	o := a.guard.CheckProtected(context.Background())
	if err := followIntent(o); err != nil {
		return err
	}

	fmt.Printf("%s <%s>\n", o.User.Name, o.User.Email)
	return nil
}

// cmdHome reports where a fresh visit would land, based only on local state
func cmdHome() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	o := a.guard.ResolveLanding()
	switch o.Intent.Target {
	case nav.PageLogin:
		fmt.Println("Landing: login (no active session)")
	default:
		fmt.Printf("Landing: %s\n", o.Intent.Target)
	}
	return nil
}

func argOrPrompt(args []string, i int, label string) (string, error) {
	if len(args) > i && args[i] != "" {
		return args[i], nil
	}
	return promptRequired(label)
}
