package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	redirect string
	failOn   string

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	if call == f.failOn {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) pendingRedirect() (string, bool) {
	to := f.redirect
	f.redirect = ""
	return to, to != ""
}

func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) SignUp(context.Context) error { return f.record("signup") }
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) WhoAmI(context.Context) error { return f.record("whoami") }
func (f *fakeExec) Open(_ context.Context, path string) error {
	return f.record("open " + path)
}
func (f *fakeExec) Skills(context.Context) error { return f.record("skills") }
func (f *fakeExec) ToggleSkill(_ context.Context, id string) error {
	return f.record("skill " + id)
}
func (f *fakeExec) Teams(context.Context) error { return f.record("teams") }
func (f *fakeExec) Chat(_ context.Context, team string) error {
	return f.record("chat " + team)
}
func (f *fakeExec) Avatar(_ context.Context, path string, direct bool) error {
	return f.record(fmt.Sprintf("avatar %s %v", path, direct))
}
func (f *fakeExec) EditProfile(context.Context) error    { return f.record("profile") }
func (f *fakeExec) DismissWelcome(context.Context) error { return f.record("welcome") }

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func runLines(exec execIface, lines ...string) {
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "status" }, r)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)
	exec := &fakeExec{}

	runLines(exec,
		"help",
		"login",
		"open /teams",
		"o /profile",
		"skills",
		"skill s-go",
		"teams",
		"chat t-1",
		"avatar me.png",
		"avatar me.png direct",
		"profile",
		"welcome",
		"whoami",
		"logout",
		"register",
		"exit",
		"login",
	)

	assert.Equal(t, []string{
		"login",
		"open /teams",
		"open /profile",
		"skills",
		"skill s-go",
		"teams",
		"chat t-1",
		"avatar me.png false",
		"avatar me.png true",
		"profile",
		"welcome",
		"whoami",
		"logout",
		"signup",
	}, exec.calls)
}

func TestRunREPL_UsageErrorsAndUnknown(t *testing.T) {
	out := capturePrintln(t)
	exec := &fakeExec{}

	runLines(exec, "open", "skill", "chat", "avatar a b", "bogus", "", "quit")

	assert.Empty(t, exec.calls)
	joined := strings.Join(*out, "")
	assert.Contains(t, joined, "Usage: open <path>")
	assert.Contains(t, joined, "Usage: skill <id>")
	assert.Contains(t, joined, "Usage: chat <team>")
	assert.Contains(t, joined, "Usage: avatar <file> [direct]")
	assert.Contains(t, joined, "Unknown command: bogus")
	assert.Contains(t, joined, "Bye!")
}

func TestRunREPL_PrintsErrorsAndFollowsRedirects(t *testing.T) {
	out := capturePrintln(t)
	exec := &fakeExec{failOn: "teams", redirect: "/login?redirectedFrom=%2Fteams"}

	runLines(exec, "teams")

	assert.Equal(t, []string{"teams", "open /login?redirectedFrom=%2Fteams"}, exec.calls)
	assert.Contains(t, strings.Join(*out, ""), "Error: boom")
}

func TestRunREPL_HelpDependsOnSession(t *testing.T) {
	out := capturePrintln(t)

	runLines(&fakeExec{}, "help")
	runLines(&fakeExec{loggedIn: true}, "help")

	joined := strings.Join(*out, "")
	assert.Contains(t, joined, "Available commands: login, signup")
	assert.Contains(t, joined, "chat <team>")
	assert.Contains(t, joined, "portal status> ")
}
