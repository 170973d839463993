package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/shayne/yargs"
	"golang.org/x/term"

	"github.com/sekuso/asciinema/internal/api"
	"github.com/sekuso/asciinema/internal/app"
	"github.com/sekuso/asciinema/internal/ui"
	"github.com/sekuso/asciinema/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

type usageError struct {
	message string
}

func (e usageError) Error() string {
	return e.message
}

func newUsageError(format string, args ...any) error {
	return usageError{message: fmt.Sprintf(format, args...)}
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	interactive bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		interactive: isTerminal(stdin) && isTerminal(stderr),
	}
	handlers := map[string]yargs.SubcommandHandler{
		"upload":  c.handleUpload,
		"auth":    c.handleAuth,
		"stream":  c.handleStream,
		"version": c.handleVersion,
	}
	err := yargs.RunSubcommands(ctx, normalizeArgs(args), helpConfig, struct{}{}, handlers)
	if err == nil || errors.Is(err, yargs.ErrShown) {
		return 0
	}
	reportCLIError(stderr, err)
	return 1
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var helpConfig = yargs.HelpConfig{
	Command: yargs.CommandInfo{
		Name:        "asciinema",
		Description: "Upload terminal recordings and manage live streams",
		Examples: []string{
			"asciinema upload demo.cast",
			"asciinema auth",
			"asciinema stream list",
			"asciinema stream create --title demo --live",
			"asciinema stream update 42 --clear-title --live=false",
			"asciinema version",
		},
	},
	SubCommands: map[string]yargs.SubCommandInfo{
		"upload": {
			Name:        "upload",
			Description: "Upload a recording to the server",
			Usage:       "<file>",
		},
		"auth": {
			Name:        "auth",
			Description: "Link this install with your server account",
		},
		"stream": {
			Name:        "stream",
			Description: "List, create or update live streams",
			Usage:       "list [<prefix>] | create [flags] | update <id> [flags]",
			Examples: []string{
				"asciinema stream list demo",
				"asciinema stream create --title demo --env LANG=en_US.UTF-8",
				"asciinema stream update 42 --title renamed --clear-shell",
			},
		},
		"version": {
			Name:        "version",
			Description: "Show CLI version",
		},
	},
}

func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"--help"}
	}
	switch args[0] {
	case "--version", "-V":
		return append([]string{"version"}, args[1:]...)
	case "help":
		if len(args) > 1 {
			return []string{args[1], "--help"}
		}
		return []string{"--help"}
	}
	return args
}

type uploadFlags struct {
	ServerURL string `flag:"server-url" help:"server base URL (default https://asciinema.org)"`
	Config    string `flag:"config" help:"config file path"`
	Verbose   bool   `flag:"verbose" short:"v" help:"log requests to stderr"`
}

type uploadArgs struct {
	File string `pos:"0" help:"asciicast file to upload"`
}

type authFlags struct {
	ServerURL string `flag:"server-url" help:"server base URL (default https://asciinema.org)"`
	Config    string `flag:"config" help:"config file path"`
	Verbose   bool   `flag:"verbose" short:"v" help:"log requests to stderr"`
}

type streamFlags struct {
	ServerURL string `flag:"server-url" help:"server base URL (default https://asciinema.org)"`
	Config    string `flag:"config" help:"config file path"`
	Verbose   bool   `flag:"verbose" short:"v" help:"log requests to stderr"`

	Title       string   `flag:"title" help:"stream title"`
	ClearTitle  bool     `flag:"clear-title" help:"remove the stream title"`
	Shell       string   `flag:"shell" help:"shell reported for the stream"`
	ClearShell  bool     `flag:"clear-shell" help:"remove the reported shell"`
	TermType    string   `flag:"term-type" help:"terminal type, e.g. xterm-256color"`
	TermVersion string   `flag:"term-version" help:"terminal version"`
	Env         []string `flag:"env" help:"environment variable as KEY=VALUE (repeatable)"`
	ClearEnv    bool     `flag:"clear-env" help:"remove all reported environment variables"`
	Live        bool     `flag:"live" help:"mark the stream live (--live=false to end it)"`
}

type streamArgs struct {
	Action string `pos:"0" help:"list|create|update"`
	Target string `pos:"1?" help:"name prefix for list, stream id for update"`
}

type commonFlags struct {
	serverURL string
	config    string
	verbose   bool
}

func (c *cli) newApp(flags commonFlags) (*app.App, error) {
	return app.New(app.Options{
		ConfigPath:  flags.config,
		ServerURL:   flags.serverURL,
		Verbose:     flags.verbose,
		Stdin:       c.stdin,
		Stdout:      c.stdout,
		Stderr:      c.stderr,
		Interactive: c.interactive,
	})
}

func (c *cli) handleUpload(ctx context.Context, args []string) error {
	result, err := yargs.ParseAndHandleHelp[struct{}, uploadFlags, uploadArgs](args, helpConfig)
	if errors.Is(err, yargs.ErrShown) {
		return nil
	}
	if err != nil {
		return err
	}
	path := strings.TrimSpace(result.Args.File)
	if path == "" {
		return newUsageError("Usage: asciinema upload <file>")
	}

	flags := result.SubCommandFlags
	a, err := c.newApp(commonFlags{serverURL: flags.ServerURL, config: flags.Config, verbose: flags.Verbose})
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Upload(ctx, path)
}

func (c *cli) handleAuth(_ context.Context, args []string) error {
	result, err := yargs.ParseAndHandleHelp[struct{}, authFlags, struct{}](args, helpConfig)
	if errors.Is(err, yargs.ErrShown) {
		return nil
	}
	if err != nil {
		return err
	}

	flags := result.SubCommandFlags
	a, err := c.newApp(commonFlags{serverURL: flags.ServerURL, config: flags.Config, verbose: flags.Verbose})
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Auth()
}

func (c *cli) handleStream(ctx context.Context, args []string) error {
	live, err := parseBoolFlagValue(args, "live")
	if err != nil {
		return newUsageError("%v", err)
	}
	result, err := yargs.ParseAndHandleHelp[struct{}, streamFlags, streamArgs](args, helpConfig)
	if errors.Is(err, yargs.ErrShown) {
		return nil
	}
	if err != nil {
		return err
	}

	flags := result.SubCommandFlags
	common := commonFlags{serverURL: flags.ServerURL, config: flags.Config, verbose: flags.Verbose}
	target := strings.TrimSpace(result.Args.Target)

	switch action := strings.TrimSpace(result.Args.Action); action {
	case "list":
		a, err := c.newApp(common)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ListStreams(ctx, target)

	case "create":
		if target != "" {
			return newUsageError("Usage: asciinema stream create [flags]")
		}
		changeset, err := buildChangeset(flags, live)
		if err != nil {
			return err
		}
		applyEnvDefaults(&changeset, os.Getenv)
		a, err := c.newApp(common)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.CreateStream(ctx, changeset)

	case "update":
		id, err := parseStreamID(target)
		if err != nil {
			return err
		}
		changeset, err := buildChangeset(flags, live)
		if err != nil {
			return err
		}
		a, err := c.newApp(common)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.UpdateStream(ctx, id, changeset)

	default:
		return newUsageError("Usage: asciinema stream list|create|update")
	}
}

func (c *cli) handleVersion(_ context.Context, args []string) error {
	_, err := yargs.ParseAndHandleHelp[struct{}, struct{}, struct{}](args, helpConfig)
	if errors.Is(err, yargs.ErrShown) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, version.Long())
	return nil
}

func parseStreamID(raw string) (uint64, error) {
	if raw == "" {
		return 0, newUsageError("Usage: asciinema stream update <id> [flags]")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, newUsageError("invalid stream id %q", raw)
	}
	return id, nil
}

// buildChangeset maps stream flags onto a changeset. A flag that was not
// given leaves its field unset so the server keeps the current value.
func buildChangeset(flags streamFlags, live boolFlagValue) (api.StreamChangeset, error) {
	var cs api.StreamChangeset

	if live.set {
		cs.Live = api.Set(live.value)
	}

	title, err := stringField("title", flags.Title, flags.ClearTitle)
	if err != nil {
		return cs, err
	}
	cs.Title = title

	shell, err := stringField("shell", flags.Shell, flags.ClearShell)
	if err != nil {
		return cs, err
	}
	cs.Shell = shell

	if flags.TermType != "" {
		cs.TermType = api.Set(flags.TermType)
	}
	if flags.TermVersion != "" {
		cs.TermVersion = api.Set(flags.TermVersion)
	}

	switch {
	case flags.ClearEnv && len(flags.Env) > 0:
		return cs, newUsageError("--env and --clear-env cannot be combined")
	case flags.ClearEnv:
		cs.Env = api.Null[map[string]string]()
	case len(flags.Env) > 0:
		env, err := parseEnvPairs(flags.Env)
		if err != nil {
			return cs, err
		}
		cs.Env = api.Set(env)
	}
	return cs, nil
}

func stringField(name, value string, clear bool) (api.Field[string], error) {
	switch {
	case clear && value != "":
		return api.Field[string]{}, newUsageError("--%s and --clear-%s cannot be combined", name, name)
	case clear:
		return api.Null[string](), nil
	case value != "":
		return api.Set(value), nil
	}
	return api.Field[string]{}, nil
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, newUsageError("invalid --env %q (expected KEY=VALUE)", pair)
		}
		env[key] = value
	}
	return env, nil
}

// applyEnvDefaults fills the terminal type and shell from the local
// environment unless the user set or cleared them. A cleared field is null,
// not zero.
func applyEnvDefaults(cs *api.StreamChangeset, getenv func(string) string) {
	if cs.TermType.IsZero() {
		if termType := strings.TrimSpace(getenv("TERM")); termType != "" {
			cs.TermType = api.Set(termType)
		}
	}
	if cs.Shell.IsZero() {
		if shell := strings.TrimSpace(getenv("SHELL")); shell != "" {
			cs.Shell = api.Set(shell)
		}
	}
}

type boolFlagValue struct {
	set   bool
	value bool
}

func parseBoolFlagValue(args []string, name string) (boolFlagValue, error) {
	flag := "--" + name
	prefix := flag + "="
	var value boolFlagValue
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg != flag && !strings.HasPrefix(arg, prefix) {
			continue
		}
		if value.set {
			return value, fmt.Errorf("%s specified more than once", flag)
		}
		if arg == flag {
			value = boolFlagValue{set: true, value: true}
			continue
		}
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(arg, prefix))) {
		case "true", "1", "yes":
			value = boolFlagValue{set: true, value: true}
		case "false", "0", "no":
			value = boolFlagValue{set: true, value: false}
		default:
			return value, fmt.Errorf("invalid value for %s (expected true or false)", flag)
		}
	}
	return value, nil
}

func reportCLIError(w io.Writer, err error) {
	styles := ui.GetTheme("").StylesFor(w)
	prefix := styles.Danger.Render("asciinema:")

	var usageErr usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(w, usageErr.message)
		return
	}
	var appErr *api.ApplicationError
	if errors.As(err, &appErr) {
		fmt.Fprintln(w, prefix, appErr.Message)
		return
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, prefix, "interrupted")
		return
	}
	fmt.Fprintln(w, prefix, err.Error())
}
