package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
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
	Session(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Admin(ctx context.Context) error
	Profile(ctx context.Context) error
	Earnings(ctx context.Context) error
	Reports(ctx context.Context) error
	Report(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Campaigns(ctx context.Context) error
	Approve(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// It returns on EOF or when the user types "exit" or "quit".
//
// Command errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("rd (%s)> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, admin, profile, earnings, reports, report, upload <file>, campaigns, approve, logout, exit")
			} else {
				printlnFn("Available commands: register, login, session <link-url | access-token [refresh-token]>, campaigns, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "session":
			if len(args) == 0 {
				printlnFn("Usage: session <link-url | access-token [refresh-token]>")
				continue
			}
			cmdErr = a.Session(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "admin":
			cmdErr = a.Admin(ctx)
		case "profile":
			cmdErr = a.Profile(ctx)
		case "earnings":
			cmdErr = a.Earnings(ctx)
		case "reports":
			cmdErr = a.Reports(ctx)
		case "report":
			cmdErr = a.Report(ctx)
		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <file>")
				continue
			}
			cmdErr = a.Upload(ctx, args[0])
		case "campaigns":
			cmdErr = a.Campaigns(ctx)
		case "approve":
			cmdErr = a.Approve(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
