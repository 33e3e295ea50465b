// ABOUTME: Session commands: login, logout, register, me, passwd and stats
// ABOUTME: Thin wrappers over session.Manager with colored terminal output

package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/2389/registrar/internal/api"
)

var sessionAliases = map[string]string{"-u": "username", "-p": "password", "-e": "email"}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := parseFlags(args, sessionAliases)
	username := fs.get("username")
	if username == "" && len(fs.positional) > 0 {
		username = fs.positional[0]
	}

	username, err := a.prompt("Username", username)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Password", fs.get("password"))
	if err != nil {
		return err
	}

	user, err := a.session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Logged in as %s", user.Username)
	fmt.Printf(" (%s)\n", user.Role)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	color.New(color.FgGreen).Println("✓ Logged out")
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := parseFlags(args, sessionAliases)

	var (
		reg api.Registration
		err error
	)
	if reg.Username, err = a.prompt("Username", fs.get("username")); err != nil {
		return err
	}
	if reg.Email, err = a.prompt("Email", fs.get("email")); err != nil {
		return err
	}
	if reg.FullName, err = a.prompt("Full name", fs.get("full_name")); err != nil {
		return err
	}
	if reg.Password, err = a.promptPassword("Password", fs.get("password")); err != nil {
		return err
	}
	reg.Role = api.Role(fs.get("role"))

	user, err := a.session.Register(ctx, reg)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("✓ Registered %s\n", user.Username)
	fmt.Println("  Log in with: registrar-admin login -u " + user.Username)
	return nil
}

func (a *app) cmdMe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	green.Printf("  API:       ")
	fmt.Println(a.client.BaseURL())

	user, err := a.requireSession(ctx)
	if err != nil {
		yellow.Printf("  Identity:  ")
		color.Red("%v\n", err)
		fmt.Println()
		return nil
	}

	cyan.Println()
	cyan.Println("  Identity")
	cyan.Println("  --------")
	fmt.Printf("  Username:   %s\n", user.Username)
	fmt.Printf("  Full name:  %s\n", user.FullName)
	if user.Email != "" {
		fmt.Printf("  Email:      %s\n", user.Email)
	}
	if user.IsAdmin() {
		green.Printf("  Role:       %s\n", user.Role)
	} else {
		fmt.Printf("  Role:       %s\n", user.Role)
	}
	fmt.Println()
	return nil
}

func (a *app) cmdPasswd(ctx context.Context, args []string) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	fs := parseFlags(args, nil)

	current, err := a.promptPassword("Current password", fs.get("old"))
	if err != nil {
		return err
	}
	next, err := a.promptPassword("New password", fs.get("new"))
	if err != nil {
		return err
	}
	if !fs.has("new") {
		again, err := a.promptPassword("Repeat new password", "")
		if err != nil {
			return err
		}
		if again != next {
			return fmt.Errorf("passwords do not match")
		}
	}

	if err := a.session.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	color.New(color.FgGreen).Println("✓ Password changed")
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	stats, err := a.client.Statistics(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Statistics")
	cyan.Println("  ----------")
	fmt.Printf("  Colleges:  %d\n", stats.TotalColleges)
	fmt.Printf("  Programs:  %d\n", stats.TotalPrograms)
	fmt.Printf("  Students:  %d\n", stats.TotalStudents)
	fmt.Println()
	return nil
}
