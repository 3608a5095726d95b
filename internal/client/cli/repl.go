package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context, search string) error
	Filter(ctx context.Context) error
	Categories(ctx context.Context) error
	SetChecked(ctx context.Context, id string, checked bool) error
	Stats(ctx context.Context) error
	Refresh(ctx context.Context) error
	Logs(ctx context.Context) error
	Trail(ctx context.Context, id string) error
	History(ctx context.Context, id string) error
	Export(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, whoami, exit"
	helpLoggedIn  = "Available commands: (l)ist [search], filter, categories, check <id>, uncheck <id>, " +
		"stats, refresh, logs, trail <id>, history [id], export, whoami, logout, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF
// or "exit"/"quit". Errors returned by handlers are printed on one line and
// the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("portal %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpLoggedIn)
		} else {
			printlnFn(helpLoggedOut)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	}

	switch cmd {
	case "logout", "l", "list", "filter", "categories", "check", "uncheck",
		"stats", "refresh", "logs", "trail", "history", "export":
		if !a.isLoggedIn() {
			printlnFn("Please log in first")
			return nil
		}
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "l", "list":
		return a.List(ctx, strings.Join(args, " "))
	case "filter":
		return a.Filter(ctx)
	case "categories":
		return a.Categories(ctx)
	case "check", "uncheck":
		if len(args) == 0 {
			printlnFn("Usage:", cmd, "<id>")
			return nil
		}
		return a.SetChecked(ctx, args[0], cmd == "check")
	case "stats":
		return a.Stats(ctx)
	case "refresh":
		return a.Refresh(ctx)
	case "logs":
		return a.Logs(ctx)
	case "trail":
		if len(args) == 0 {
			printlnFn("Usage: trail <id>")
			return nil
		}
		return a.Trail(ctx, args[0])
	case "history":
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		return a.History(ctx, id)
	case "export":
		return a.Export(ctx)
	}
	return nil
}
