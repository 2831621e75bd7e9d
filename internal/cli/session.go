package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/term"

	"fascicle/internal/api"
	"fascicle/internal/config"
	"fascicle/internal/core"
	"fascicle/internal/track"
	"fascicle/internal/update"
)

// openSession builds an API client and logs in with the resolved
// credentials, prompting for the password if it is set nowhere.
func openSession(ctx context.Context, opts *RootOptions, cfg *config.Config) (*core.Session, error) {
	if cfg.Email == "" {
		return nil, NewExitError(ExitCommandError,
			`no login email: pass --email, set FASCICLE_EMAIL or run "fascicle config set email ..."`)
	}

	password := cfg.Password
	if password == "" {
		read := opts.ReadPassword
		if read == nil {
			read = promptPassword
		}
		var err error
		password, err = read()
		if err != nil {
			return nil, err
		}
	}
	if password == "" {
		return nil, NewExitError(ExitCommandError,
			`no login password: pass --password, set FASCICLE_PASSWORD or run "fascicle config set password ..."`)
	}

	client, err := api.New(api.Config{BaseURL: opts.APIBase})
	if err != nil {
		return nil, err
	}

	session := core.NewSession(client)
	fmt.Fprintf(opts.stdout(), "Login with email '%s'...\n", cfg.Email)
	if err := session.Login(ctx, cfg.Email, password); err != nil {
		return nil, WrapExitError(ExitCommandError, "login failed", err)
	}
	return session, nil
}

// promptPassword asks for the password on the terminal without echo. When
// stdin is not a terminal (piped input), it reads one plain line instead.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// openStore opens the track database in the config dir, creating the dir
// on first use.
func openStore() (*track.Store, error) {
	path, err := config.TrackDBPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return track.Open(path)
}

// lockRun takes the cross-process run lock. Two concurrent update runs
// would see the same tracked positions and download everything twice.
func lockRun() (func(), error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(dir, "run.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, NewExitError(ExitFailure, "another fascicle command is already running")
	}
	return func() { _ = lock.Unlock() }, nil
}

// newChecker wires a session and store into an update checker using the
// configured naming rules and EPUB options.
func newChecker(session *core.Session, store *track.Store, cfg *config.Config) (*update.Checker, error) {
	gen, err := nameGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return &update.Checker{
		Session: session,
		Store:   store,
		Names:   gen,
		EPUB:    epubOptions(cfg),
	}, nil
}
