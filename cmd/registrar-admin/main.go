// ABOUTME: Admin CLI for the student registrar API
// ABOUTME: Session, college/program/student management, exports and an interactive browser

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/registrar/internal/apierr"
)

const banner = `
                _     _                        _           _
 _ __ ___  __ _(_)___| |_ _ __ __ _ _ __      / \   __| |_ __ ___ (_)_ __
| '__/ _ \/ _' | / __| __| '__/ _' | '__|___ / _ \ / _' | '_ ' _ \| | '_ \
| | |  __/ (_| | \__ \ |_| | | (_| | | |___/ ___ \ (_| | | | | | | | | | |
|_|  \___|\__, |_|___/\__|_|  \__,_|_|     /_/   \_\__,_|_| |_| |_|_|_| |_|
          |___/
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	a, err := newApp(ctx, args)
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "login":
		err = a.cmdLogin(ctx, a.args)
	case "logout":
		err = a.cmdLogout(ctx)
	case "register":
		err = a.cmdRegister(ctx, a.args)
	case "me", "status":
		err = a.cmdMe(ctx)
	case "passwd":
		err = a.cmdPasswd(ctx, a.args)
	case "stats":
		err = a.cmdStats(ctx)
	case "colleges":
		err = runRecords(ctx, a, collegeCommands(a), a.args)
	case "programs":
		err = runRecords(ctx, a, programCommands(a), a.args)
	case "students":
		err = runRecords(ctx, a, studentCommands(a), a.args)
	case "browse":
		err = a.cmdBrowse(ctx, a.args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		a.close()
		os.Exit(1)
	}

	a.close()

	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints field errors one per line and everything else as is.
func reportError(err error) {
	var verr *apierr.ValidationError
	if errors.As(err, &verr) {
		color.Red("Validation failed:\n")
		for _, field := range verr.FieldNames() {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, verr.Fields[field])
		}
		return
	}
	if apierr.IsUnauthorized(err) {
		color.Red("Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run `registrar-admin login` to start a new session.")
		return
	}
	color.Red("Error: %v\n", err)
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: registrar-admin <command> [args] [--config <path>] [--yes]")
	fmt.Println()
	yellow.Println("Session:")
	fmt.Println("  login [-u <user>]               Log in (prompts for missing values)")
	fmt.Println("  logout                          End the session and forget the token")
	fmt.Println("  register                        Create an account")
	fmt.Println("  me                              Show the logged-in user")
	fmt.Println("  passwd                          Change your password")
	fmt.Println("  stats                           Show record counts")
	fmt.Println()
	yellow.Println("Records (colleges | programs | students):")
	fmt.Println("  <kind> [list] [--search s] [--sort key[:desc]] [--page n] [--per-page n] [--<filter> v]")
	fmt.Println("  <kind> create --field value ...")
	fmt.Println("  <kind> update <key> --field value ...")
	fmt.Println("  <kind> delete <key>")
	fmt.Println("  <kind> bulk-delete <key> [key...]")
	fmt.Println("  <kind> export [-o file.xlsx] [list flags]")
	fmt.Println("  students create|update ... --photo <image>   Upload a photo to Cloudinary")
	fmt.Println()
	yellow.Println("Interactive:")
	fmt.Println("  browse <kind>                   Page through a collection (type 'help' inside)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  REGISTRAR_CONFIG                Config file (yaml or toml)")
	fmt.Println("  REGISTRAR_API_URL               API base URL (default: http://localhost:5000/api)")
	fmt.Println("  REGISTRAR_TOKEN                 Use this token instead of the saved session")
	fmt.Println("  CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  registrar-admin login -u admin")
	fmt.Println("  registrar-admin students --search santos --sort last_name --year_level 2")
	fmt.Println("  registrar-admin colleges update CCS --code CICS --name 'College of Computing'")
	fmt.Println("  registrar-admin programs export --college_code CCS -o ccs.xlsx")
	fmt.Println()
}
