package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/licomnaklavy/edu-platform/internal/guard"
)

// cmdProfile manages the signed-in user's profile
func cmdProfile(args []string) error {
	if len(args) < 1 {
		return cmdProfileShow()
	}

	switch args[0] {
	case "show":
		return cmdProfileShow()
	case "set", "update":
		return cmdProfileUpdate()
	case "password":
		return cmdProfilePassword()
	default:
		return fmt.Errorf("unknown profile command: %s", args[0])
	}
}

func cmdProfileShow() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := followIntent(a.guard.CheckProtected(context.Background())); err != nil {
		return err
	}

	user, err := a.guard.LoadProfile(context.Background())
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	fmt.Println("Profile:")
	fmt.Printf("  Name:  %s\n", user.Name)
	fmt.Printf("  Email: %s\n", user.Email)
	return nil
}

func cmdProfileUpdate() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := followIntent(a.guard.CheckProtected(context.Background())); err != nil {
		return err
	}

	current, err := a.guard.LoadProfile(context.Background())
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	fmt.Println("Press Enter to keep the current value.")
	email, err := prompt(fmt.Sprintf("Email [%s]", current.Email))
	if err != nil {
		return err
	}
	if email == "" {
		email = current.Email
	}
	name, err := prompt(fmt.Sprintf("Name [%s]", current.Name))
	if err != nil {
		return err
	}
	if name == "" {
		name = current.Name
	}

	user, err := a.guard.SaveProfile(context.Background(), email, name)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	fmt.Printf("Profile updated: %s <%s>\n", user.Name, user.Email)
	return nil
}

func cmdProfilePassword() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := followIntent(a.guard.CheckProtected(context.Background())); err != nil {
		return err
	}

	current, err := promptRequired("Current password")
	if err != nil {
		return err
	}
	newPassword, err := promptRequired("New password")
	if err != nil {
		return err
	}
	confirm, err := promptRequired("Confirm new password")
	if err != nil {
		return err
	}

	if err := a.guard.ChangePassword(context.Background(), current, newPassword, confirm); err != nil {
		switch {
		case errors.Is(err, guard.ErrPasswordMismatch),
			errors.Is(err, guard.ErrPasswordTooShort),
			errors.Is(err, guard.ErrPasswordFieldsRequired):
			return err
		default:
			return fmt.Errorf("change password: %w", err)
		}
	}

	fmt.Println("Password changed.")
	return nil
}
