// ABOUTME: Interactive browser for one collection backed by the paged controller
// ABOUTME: Paging, staged search, sort toggles, filters, selection and confirmed deletes

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/registrar/internal/paging"
)

func (a *app) cmdBrowse(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: browse <colleges|programs|students>")
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "colleges":
		return browse(ctx, a, collegeCommands(a))
	case "programs":
		return browse(ctx, a, programCommands(a))
	case "students":
		return browse(ctx, a, studentCommands(a))
	default:
		return fmt.Errorf("unknown collection: %s (use colleges, programs, students)", args[0])
	}
}

func printBrowseHelp(filters []string) {
	yellow := color.New(color.FgYellow)
	yellow.Println("  Commands:")
	fmt.Println("    n, next / p, prev        Move one page")
	fmt.Println("    page <n>                 Jump to a page")
	fmt.Println("    size <n>                 Set the page size")
	fmt.Println("    sort <key>               Sort by key; again to flip direction")
	fmt.Println("    type <text>              Stage search text (not applied yet)")
	fmt.Println("    search [text]            Apply search (staged text if none given)")
	if len(filters) > 0 {
		fmt.Printf("    filter <key> [value]     Set or clear a filter (%s)\n", strings.Join(filters, ", "))
		fmt.Println("    clear                    Remove all filters")
	}
	fmt.Println("    sel <key>                Toggle selection of a row")
	fmt.Println("    all                      Select the whole page, or clear it")
	fmt.Println("    del <key>                Delete one record")
	fmt.Println("    bulk                     Delete the selection")
	fmt.Println("    r, reload                Fetch the page again")
	fmt.Println("    q, quit                  Leave")
}

func browse[T any](ctx context.Context, a *app, rc recordCommands[T]) error {
	ctl := rc.controller(a)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	cyan.Printf("Browsing %s (type 'help' for commands, Ctrl+D to exit)\n", rc.desc.Endpoint.Plural)
	if err := ctl.Load(ctx); err != nil {
		return err
	}
	printPage(rc.desc, ctl.Snapshot())

	for {
		green.Print("> ")
		line, err := a.in.ReadLine()
		if err != nil {
			fmt.Println()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		quit, show, err := browseStep(ctx, ctl, cmd, rest)
		if quit {
			return nil
		}
		if err != nil {
			if !a.session.Authenticated() {
				return err
			}
			color.Red("  %v\n", err)
			continue
		}
		if show {
			printPage(rc.desc, ctl.Snapshot())
		}
	}
}

// browseStep runs one REPL command. It reports whether to leave and
// whether the page should be redrawn.
func browseStep[T any](ctx context.Context, ctl *paging.Controller[T], cmd, rest string) (quit, show bool, err error) {
	switch cmd {
	case "q", "quit", "exit":
		return true, false, nil
	case "help", "?":
		printBrowseHelp(ctl.Descriptor().FilterKeys)
		return false, false, nil
	case "n", "next":
		return false, true, ctl.NextPage(ctx)
	case "p", "prev":
		return false, true, ctl.PrevPage(ctx)
	case "page", "size":
		n, convErr := strconv.Atoi(rest)
		if convErr != nil {
			return false, false, fmt.Errorf("%s needs a number", cmd)
		}
		if cmd == "page" {
			return false, true, ctl.SetPage(ctx, n)
		}
		return false, true, ctl.SetPageSize(ctx, n)
	case "sort":
		return false, true, ctl.ToggleSort(ctx, rest)
	case "type":
		ctl.StageSearch(rest)
		fmt.Printf("  staged %q, run 'search' to apply\n", rest)
		return false, false, nil
	case "search", "/":
		if rest != "" {
			return false, true, ctl.Search(ctx, rest)
		}
		return false, true, ctl.SubmitSearch(ctx)
	case "filter":
		key, value, _ := strings.Cut(rest, " ")
		return false, true, ctl.SetFilter(ctx, key, strings.TrimSpace(value))
	case "clear":
		return false, true, ctl.ClearFilters(ctx)
	case "sel":
		if !ctl.Toggle(strings.ToUpper(rest)) && !ctl.IsSelected(strings.ToUpper(rest)) {
			fmt.Printf("  %s is not selected\n", strings.ToUpper(rest))
		}
		return false, true, nil
	case "all":
		ctl.SelectAllVisible()
		return false, true, nil
	case "del":
		_, err := ctl.Delete(ctx, strings.ToUpper(rest))
		return false, true, err
	case "bulk":
		if len(ctl.Selected()) == 0 {
			return false, false, fmt.Errorf("nothing selected")
		}
		_, err := ctl.BulkDelete(ctx)
		return false, true, err
	case "r", "reload":
		return false, true, ctl.Load(ctx)
	default:
		return false, false, fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
}
