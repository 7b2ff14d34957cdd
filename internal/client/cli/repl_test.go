package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
	err   error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) WhoAmI(ctx context.Context) error {
	f.calls = append(f.calls, "whoami")
	return nil
}
func (f *fakeExec) Refresh(ctx context.Context) error {
	f.calls = append(f.calls, "refresh")
	return f.err
}
func (f *fakeExec) Generate(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "generate")
	f.args = args
	return nil
}
func (f *fakeExec) Metrics(ctx context.Context) error {
	f.calls = append(f.calls, "metrics")
	return nil
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	lines := capturePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"whoami",
		"refresh",
		"generate hello there",
		"",
		"metrics",
		"foobar",
		"logout",
		"signup",
		"exit",
		"whoami",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	want := []string{"login", "whoami", "refresh", "generate", "metrics", "logout", "signup"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", exec.calls, want)
	}
	if strings.Join(exec.args, " ") != "hello there" {
		t.Fatalf("generate args = %v", exec.args)
	}

	out := strings.Join(*lines, "\n")
	for _, s := range []string{
		"Available commands: signup, login, metrics, exit",
		"Available commands: whoami, refresh, generate [text], metrics, logout, exit",
		"Unknown command: foobar",
		"vox status> ",
		"Bye!",
	} {
		if !strings.Contains(out, s) {
			t.Fatalf("output missing %q:\n%s", s, out)
		}
	}
}

func TestRunREPL_PrintsHandlerErrorsAndContinues(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("refresh\nrefresh\n")))

	if len(exec.calls) != 2 {
		t.Fatalf("expected both refreshes to run, got %v", exec.calls)
	}
	if !strings.Contains(strings.Join(*lines, "\n"), "Error: boom") {
		t.Fatalf("error not printed: %v", *lines)
	}
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	capturePrintln(t)
	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, bufio.NewScanner(strings.NewReader("")))
}
