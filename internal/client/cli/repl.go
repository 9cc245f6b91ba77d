package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
)

// printlnFn and promptFn are test seams for user-facing output. In tests,
// replace them with stubs.
var (
	printlnFn = fmt.Println
	promptFn  = fmt.Print
)

// commandContext scopes a single command. Ctrl-C while a command runs cancels
// that command only; at the prompt it ends the program as usual.
var commandContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
	Resend(ctx context.Context) error
	Login(ctx context.Context) error
	Google(ctx context.Context, args []string) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error

	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context) error
	UpdateProfile(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Logout(ctx context.Context) error

	OpenPanel(args []string) error
	Dismiss() error
	ToggleMenu() error
	Status(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the hubauth CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - register           create an account
//	  - verify [code]      enter the emailed verification code
//	  - resend             send the code again (after the cooldown)
//	  - login              sign in
//	  - google <code>      sign in with a Google authorization code
//	  - forgot             start a password reset
//	  - reset              finish a password reset
//
//	Logged in:
//	  - whoami             show the stored session
//	  - profile            fetch the account from the server
//	  - update             change first/last name
//	  - passwd             change password
//	  - delete-account     delete the account
//	  - logout             log out
//
//	Always:
//	  - open <panel>, close | esc, menu, status, help, exit | quit
//
// Errors returned by command handlers are not printed here; the view has
// already shown them as banners.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		promptFn(fmt.Sprintf("hubauth %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		cmdCtx, cancel := commandContext(ctx)
		dispatch(cmdCtx, a, cmd, args)
		cancel()

		if ctx.Err() != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn("Available commands: whoami, profile, update, passwd, delete-account, logout, menu, status, exit")
		} else {
			printlnFn("Available commands: register, verify [code], resend, login, google <code>, forgot, reset, open <panel>, close, menu, status, exit")
		}

	case "register":
		_ = a.Register(ctx)
	case "verify":
		_ = a.Verify(ctx, args)
	case "resend":
		_ = a.Resend(ctx)
	case "login":
		_ = a.Login(ctx)
	case "google":
		_ = a.Google(ctx, args)
	case "forgot":
		_ = a.Forgot(ctx)
	case "reset":
		_ = a.Reset(ctx)

	case "whoami":
		_ = a.WhoAmI(ctx)
	case "profile":
		_ = a.Profile(ctx)
	case "update":
		_ = a.UpdateProfile(ctx)
	case "passwd":
		_ = a.ChangePassword(ctx)
	case "delete-account":
		_ = a.DeleteAccount(ctx)
	case "logout":
		_ = a.Logout(ctx)

	case "open":
		if err := a.OpenPanel(args); err != nil {
			printlnFn(err.Error())
		}
	case "close", "esc":
		_ = a.Dismiss()
	case "menu":
		_ = a.ToggleMenu()
	case "status":
		_ = a.Status(ctx)

	default:
		printlnFn("Unknown command:", cmd)
	}
}
