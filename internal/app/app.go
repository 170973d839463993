package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sekuso/asciinema/internal/api"
	"github.com/sekuso/asciinema/internal/config"
	"github.com/sekuso/asciinema/internal/recording"
	"github.com/sekuso/asciinema/internal/ui"
)

// Options configure one CLI invocation.
type Options struct {
	ConfigPath string
	ServerURL  string
	Verbose    bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Interactive enables the spinner and the browser prompt. Callers set it
	// when stdin and stderr are terminals.
	Interactive bool

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// App runs asciinema commands against the configured server.
type App struct {
	cfg    *config.Config
	api    api.Service
	logger *zap.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	theme       ui.Theme
	styles      ui.Styles
	errStyles   ui.Styles
	interactive bool

	openURL func(string) error
	confirm func(title string) (bool, error)
}

// New loads configuration and builds the API client.
func New(opts Options) (*App, error) {
	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	logger := opts.Logger
	if logger == nil {
		logger = newLogger(opts.Verbose, stderr)
	}

	cfg, err := config.Load(config.Options{Path: opts.ConfigPath, ServerURL: opts.ServerURL})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("server_url", cfg.ServerURLRaw),
		zap.Bool("network_disabled", cfg.NetworkDisabled()),
		zap.String("theme", cfg.Theme),
	)

	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithNetworkDisabled(cfg.NetworkDisabled()),
	}
	if opts.HTTPClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(opts.HTTPClient))
	}

	theme := ui.GetTheme(cfg.Theme)
	a := &App{
		cfg:         cfg,
		api:         api.New(cfg, apiOpts...),
		logger:      logger,
		in:          stdin,
		out:         stdout,
		errOut:      stderr,
		theme:       theme,
		styles:      theme.StylesFor(stdout),
		errStyles:   theme.StylesFor(stderr),
		interactive: opts.Interactive,
		openURL:     ui.OpenURL,
	}
	a.confirm = func(title string) (bool, error) {
		return ui.Confirm(a.in, a.errOut, a.theme, title, true)
	}
	return a, nil
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.logger.Sync()
}

// Upload validates a local recording and uploads it.
func (a *App) Upload(ctx context.Context, path string) error {
	if a.cfg.NetworkDisabled() {
		return api.ErrNetworkDisabled
	}
	version, err := recording.Validate(path)
	if err != nil {
		return err
	}
	a.logger.Debug("recording validated", zap.String("path", path), zap.Int("asciicast_version", version))

	var result *api.RecordingUploadResult
	err = a.spin(ctx, "Uploading "+path, func(ctx context.Context) error {
		var err error
		result, err = a.api.UploadRecording(ctx, path)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, result.DisplayText())
	return nil
}

// Auth prints the account-linking URL for this install and, when interactive,
// offers to open it.
func (a *App) Auth() error {
	// Building the URL is offline, but linking an account only makes sense
	// for a build that may reach the server.
	if a.cfg.NetworkDisabled() {
		return api.ErrNetworkDisabled
	}
	link, err := api.AuthenticationURL(a.cfg)
	if err != nil {
		return err
	}
	server, err := a.cfg.ServerURL()
	if err != nil {
		return &api.ConfigError{Err: err}
	}

	s := a.styles
	fmt.Fprintf(a.out, "Open the following URL in a web browser to link your install ID with your %s user account:\n\n", server.Host)
	fmt.Fprintf(a.out, "%s\n\n", s.Link.Render(link.String()))
	fmt.Fprintf(a.out, "This will associate all recordings uploaded from this machine (past and future ones) with your account\n")
	fmt.Fprintf(a.out, "and allow you to manage them (change title/theme, delete) at %s.\n", server.Host)

	if !a.interactive {
		return nil
	}
	fmt.Fprintln(a.errOut)
	open, err := a.confirm("Open this URL in your browser?")
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	if !open {
		return nil
	}
	if err := a.openURL(link.String()); err != nil {
		a.logger.Warn("open browser failed", zap.Error(err))
		fmt.Fprintln(a.errOut, a.errStyles.Warning.Render("Could not open a browser; copy the URL above instead."))
	}
	return nil
}

// ListStreams prints the user's streams whose names start with prefix.
func (a *App) ListStreams(ctx context.Context, prefix string) error {
	var streams []api.StreamHandle
	err := a.spin(ctx, "Fetching streams", func(ctx context.Context) error {
		var err error
		streams, err = a.api.ListUserStreams(ctx, prefix)
		return err
	})
	if err != nil {
		return err
	}
	if len(streams) == 0 {
		fmt.Fprintln(a.out, a.styles.Muted.Render("No streams found."))
		return nil
	}

	// Styling would skew tabwriter column widths.
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tURL\tPRODUCER")
	for _, stream := range streams {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", stream.ID, stream.ViewURL, stream.ProducerEndpoint)
	}
	return tw.Flush()
}

// CreateStream creates a live stream.
func (a *App) CreateStream(ctx context.Context, changeset api.StreamChangeset) error {
	a.logChangeset("creating stream", changeset)
	var stream *api.StreamHandle
	err := a.spin(ctx, "Creating stream", func(ctx context.Context) error {
		var err error
		stream, err = a.api.CreateStream(ctx, changeset)
		return err
	})
	if err != nil {
		return err
	}
	a.printStream("Stream created", stream)
	return nil
}

// UpdateStream applies changeset to stream id.
func (a *App) UpdateStream(ctx context.Context, id uint64, changeset api.StreamChangeset) error {
	a.logChangeset("updating stream", changeset, zap.Uint64("stream_id", id), zap.Bool("empty", changeset.Empty()))
	var stream *api.StreamHandle
	err := a.spin(ctx, fmt.Sprintf("Updating stream %d", id), func(ctx context.Context) error {
		var err error
		stream, err = a.api.UpdateStream(ctx, id, changeset)
		return err
	})
	if err != nil {
		return err
	}
	a.printStream("Stream updated", stream)
	return nil
}

func (a *App) printStream(heading string, stream *api.StreamHandle) {
	s := a.styles
	fmt.Fprintln(a.out, s.Success.Render(heading))
	rows := [][2]string{
		{"ID", fmt.Sprintf("%d", stream.ID)},
		{"URL", s.Link.Render(stream.ViewURL)},
		{"Producer", stream.ProducerEndpoint},
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		label := row[0] + ":" + strings.Repeat(" ", width-len(row[0]))
		fmt.Fprintf(a.out, "  %s %s\n", s.Muted.Render(label), row[1])
	}
}

func (a *App) logChangeset(msg string, changeset api.StreamChangeset, fields ...zap.Field) {
	ce := a.logger.Check(zapcore.DebugLevel, msg)
	if ce == nil {
		return
	}
	payload, err := json.Marshal(changeset)
	if err != nil {
		fields = append(fields, zap.Error(err))
	} else {
		fields = append(fields, zap.ByteString("changeset", payload))
	}
	ce.Write(fields...)
}

func (a *App) spin(ctx context.Context, label string, fn func(context.Context) error) error {
	return ui.Spin(ctx, a.errOut, a.interactive, a.errStyles, label, fn)
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	return zap.New(core)
}
