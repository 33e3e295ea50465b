// ABOUTME: Wires config, session, API client, notifications and confirmations for the CLI
// ABOUTME: Also owns the terminal: line input, password prompts and y/N confirmation

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/config"
	"github.com/2389/registrar/internal/confirm"
	"github.com/2389/registrar/internal/inflight"
	"github.com/2389/registrar/internal/notify"
	"github.com/2389/registrar/internal/session"
)

// app is everything a command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *api.Client
	session  *session.Manager
	notes    *notify.Queue
	confirms *confirm.Channel
	guard    *inflight.Guard
	in       *lineReader
	out      io.Writer

	assumeYes bool
	args      []string

	closers  []func()
	printing sync.WaitGroup
}

// newApp parses the global flags out of args and builds the collaborators.
// Background goroutines print notifications and answer confirmations.
func newApp(ctx context.Context, args []string) (*app, error) {
	var (
		configPath = config.DefaultPath()
		assumeYes  bool
		debug      bool
		rest       []string
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--yes", "-y":
			assumeYes = true
		case "--debug":
			debug = true
		default:
			rest = append(rest, args[i])
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	logger := setupLogger(cfg.Logging, os.Stderr)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		in:        &lineReader{r: bufio.NewReader(os.Stdin)},
		out:       os.Stdout,
		assumeYes: assumeYes,
		args:      rest,
	}

	store, err := openTokenStore(cfg.Session)
	if err != nil {
		return nil, err
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, func() { _ = c.Close() })
	}

	a.client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
	a.session = session.NewManager(a.client, store, logger)
	a.client.SetTokenSource(a.session)
	if cfg.Session.Token != "" {
		a.session.Adopt(cfg.Session.Token)
	}

	a.guard = inflight.New(cfg.Mutations.GuardTTL, 0)
	a.closers = append(a.closers, a.guard.Close)

	a.notes = notify.New(cfg.Notifications.DisplayDuration, logger)
	events, _ := a.notes.Subscribe(context.Background())
	a.printing.Add(1)
	go func() {
		defer a.printing.Done()
		a.printNotifications(events)
	}()

	a.confirms = confirm.New(logger)
	promptCtx, stopPrompts := context.WithCancel(ctx)
	a.closers = append(a.closers, stopPrompts)
	go a.answerConfirmations(promptCtx)

	return a, nil
}

func openTokenStore(cfg config.SessionConfig) (session.TokenStore, error) {
	if cfg.Store == config.StoreSQLite {
		s, err := session.NewSQLiteTokenStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening session database: %w", err)
		}
		return s, nil
	}
	return session.NewFileTokenStore(cfg.Path), nil
}

// close flushes pending notifications and releases resources.
func (a *app) close() {
	a.notes.Close()
	a.printing.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// requireSession resolves the current user, loading a saved token if
// needed. It fails when no session exists or the server rejects it.
func (a *app) requireSession(ctx context.Context) (*api.User, error) {
	user, err := a.session.ResolveCurrentUser(ctx)
	if errors.Is(err, session.ErrNoToken) {
		return nil, fmt.Errorf("not logged in, run `registrar-admin login` first")
	}
	return user, err
}

// printNotifications renders pushed notifications until the queue closes.
// Removals are not shown; the terminal has no toast area to clear.
func (a *app) printNotifications(events <-chan notify.Event) {
	for ev := range events {
		if ev.Type != notify.EventPushed {
			continue
		}
		n := ev.Notification
		switch n.Kind {
		case notify.KindSuccess:
			color.New(color.FgGreen).Fprintf(a.out, "✓ %s\n", n.Message)
		case notify.KindError:
			color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", n.Message)
		default:
			color.New(color.FgCyan).Fprintf(a.out, "• %s\n", n.Message)
		}
	}
}

// answerConfirmations turns each confirmation request into a y/N prompt.
// End of input abandons the request.
func (a *app) answerConfirmations(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-a.confirms.Requests():
			if a.assumeYes {
				_ = a.confirms.Resolve(req.ID, true)
				continue
			}

			title := color.New(color.FgYellow, color.Bold)
			if req.Params.Severity == confirm.SeverityDestructive {
				title = color.New(color.FgRed, color.Bold)
			}
			fmt.Fprintln(a.out)
			title.Fprintln(a.out, req.Params.Title)
			fmt.Fprintln(a.out, req.Params.Message)
			fmt.Fprintf(a.out, "%s / %s [y/N]: ", req.Params.ConfirmLabel, req.Params.CancelLabel)

			line, err := a.in.ReadLine()
			if err != nil {
				fmt.Fprintln(a.out)
				_ = a.confirms.Abandon(req.ID)
				continue
			}
			_ = a.confirms.Resolve(req.ID, isYes(line))
		}
	}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

// prompt asks for a value unless one was given.
func (a *app) prompt(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprintf(a.out, "%s: ", label)
	return a.in.ReadLine()
}

// promptPassword reads without echo when stdin is a terminal.
func (a *app) promptPassword(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return a.prompt(label, "")
	}
	fmt.Fprintf(a.out, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// lineReader serializes line reads between the command loop and the
// confirmation prompter.
type lineReader struct {
	mu sync.Mutex
	r  *bufio.Reader
}

// ReadLine returns the next trimmed line. A final line without a newline
// is returned before io.EOF.
func (l *lineReader) ReadLine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := l.r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
