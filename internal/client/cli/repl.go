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
	pendingRedirect() (string, bool)

	Login(ctx context.Context) error
	SignUp(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Open(ctx context.Context, path string) error
	Skills(ctx context.Context) error
	ToggleSkill(ctx context.Context, id string) error
	Teams(ctx context.Context) error
	Chat(ctx context.Context, teamID string) error
	Avatar(ctx context.Context, path string, direct bool) error
	EditProfile(ctx context.Context) error
	DismissWelcome(ctx context.Context) error
}

// runREPL starts a read–eval–print loop over the portal commands.
//
// Lines come from reader, which command prompts share. The first token of
// each line is the command, the rest its arguments.
// Errors are printed and the loop goes on. After every command a redirect
// queued by a remote sign-out is followed. The loop exits on EOF or
// when the user types "exit" or "quit".
//
//	Not logged in:
//	  help, login, signup, open <path>, whoami, exit | quit
//
//	Logged in additionally:
//	  skills, skill <id>, teams, chat <team>, avatar <file> [direct],
//	  profile, welcome, logout
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("portal %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: open <path>, whoami, skills, skill <id>, teams, chat <team>, avatar <file> [direct], profile, welcome, logout, exit")
			} else {
				printlnFn("Available commands: login, signup, open <path>, whoami, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "signup", "register":
			err = a.SignUp(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "open", "o":
			if len(args) != 1 {
				printlnFn("Usage: open <path>")
				continue
			}
			err = a.Open(ctx, args[0])

		case "skills":
			err = a.Skills(ctx)

		case "skill":
			if len(args) != 1 {
				printlnFn("Usage: skill <id>")
				continue
			}
			err = a.ToggleSkill(ctx, args[0])

		case "teams":
			err = a.Teams(ctx)

		case "chat":
			if len(args) != 1 {
				printlnFn("Usage: chat <team>")
				continue
			}
			err = a.Chat(ctx, args[0])

		case "avatar":
			if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != "direct") {
				printlnFn("Usage: avatar <file> [direct]")
				continue
			}
			err = a.Avatar(ctx, args[0], len(args) == 2)

		case "profile":
			err = a.EditProfile(ctx)

		case "welcome":
			err = a.DismissWelcome(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err != nil {
			printlnFn("Error:", err)
		}
		if to, ok := a.pendingRedirect(); ok {
			if err := a.Open(ctx, to); err != nil {
				printlnFn("Error:", err)
			}
		}
	}
}
