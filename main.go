// Pageahead is a terminal reader for a chapter-serving reading service that
// keeps the next chapter ready before you ask for it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pageahead/config"
	"pageahead/display"
	"pageahead/document"
	"pageahead/fetcher"
	"pageahead/gesture"
	"pageahead/logging"
	"pageahead/observer"
	"pageahead/readahead"
	"pageahead/readiness"
	"pageahead/render"
	"pageahead/session"
	"pageahead/viewer"
)

func main() {
	book := ""
	index := session.Unset
	printMode := false
	initConfig := false
	useBrowser := false
	forget := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-p", "--print":
			printMode = true
		case "--init-config":
			initConfig = true
		case "--browser":
			useBrowser = true
		case "--forget":
			forget = true
		case "-h", "--help":
			printUsage()
			return
		default:
			if book == "" {
				book = arg
				continue
			}
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				fmt.Fprintf(os.Stderr, "error: invalid chapter index %q\n", arg)
				os.Exit(2)
			}
			index = n
		}
	}

	// Generate default config and exit
	if initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	if forget {
		if err := session.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "error: clearing saved position: %v\n", err)
			os.Exit(1)
		}
		if book == "" {
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}
	if useBrowser {
		cfg.Fetcher.UseBrowser = true
	}

	pos := startPosition(book, index)

	if printMode {
		err = runPrint(cfg, pos)
	} else {
		err = run(cfg, pos)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Pageahead - Terminal Reader with Read-Ahead

Usage: pageahead [options] [book-url] [index]

Options:
  -p, --print       Print one chapter to stdout (one-shot mode)
  --init-config     Output default config (redirect to ~/.config/pageahead/config.toml)
  --browser         Fetch chapters through headless Chrome
  --forget          Forget the saved reading position
  -h, --help        Show this help

Examples:
  pageahead                                  Resume the last book
  pageahead https://example.com/book/1 12    Open chapter 12
  pageahead -p https://example.com/book/1 3  Print chapter 3
  pageahead --init-config > ~/.config/pageahead/config.toml

Environment:
  PAGEAHEAD_SERVER, PAGEAHEAD_LOG_LEVEL, PAGEAHEAD_LOG_FILE, PAGEAHEAD_USE_BROWSER`)
}

// startPosition resolves the command line against the saved session.
func startPosition(book string, index int) session.Position {
	if book != "" {
		return session.Position{BaseResource: book, CurrentIndex: max(index, 0)}
	}
	saved, err := session.Load()
	if err != nil || !saved.Known() {
		return session.Empty()
	}
	return saved
}

func endpointFor(cfg *config.Config) session.Endpoint {
	return session.Endpoint{
		Origin:        strings.TrimRight(cfg.Server.BaseURL, "/"),
		Path:          cfg.Server.ContentPath,
		ResourceParam: cfg.Server.ResourceParam,
		IndexParam:    cfg.Server.IndexParam,
	}
}

func fetcherOptions(cfg *config.Config) fetcher.Options {
	return fetcher.Options{
		UserAgent:       cfg.Fetcher.UserAgent,
		TimeoutSeconds:  cfg.Fetcher.TimeoutSeconds,
		ChromePath:      cfg.Fetcher.ChromePath,
		UseBrowser:      cfg.Fetcher.UseBrowser,
		BrowserFallback: cfg.Fetcher.BrowserFallback,
	}
}

func displayOptions(cfg *config.Config) display.Options {
	layout := document.Options{MaxContentWidth: cfg.Display.MaxWidth, Justify: cfg.Display.Justify}
	if cfg.Display.WideMode {
		layout.MaxContentWidth = 0
	}
	return display.Options{
		ContentSelector: cfg.Display.ContentSelector,
		TitleSelector:   cfg.Display.TitleSelector,
		ShowStatus:      cfg.Display.ShowStatus,
		Layout:          layout,
		Surface:         cfg.Interceptor.ControlSurface,
	}
}

// binding parses a validated keybinding.
func binding(s string) gesture.Binding {
	b, _ := gesture.ParseBinding(s)
	return b
}

func keysFor(cfg *config.Config) viewer.Keys {
	k := cfg.Keybindings
	return viewer.Keys{
		Quit:       binding(k.Quit),
		Advance:    binding(k.Advance),
		Retreat:    binding(k.Retreat),
		ScrollDown: binding(k.ScrollDown),
		ScrollUp:   binding(k.ScrollUp),
		PageDown:   binding(k.PageDown),
		Reload:     binding(k.Reload),
		Help:       binding(k.Help),
	}
}

func runPrint(cfg *config.Config, pos session.Position) error {
	if !pos.Known() {
		return fmt.Errorf("print mode needs a book URL")
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.Log.Level), os.Getenv("NO_COLOR") == "")

	f := fetcher.New(endpointFor(cfg), fetcherOptions(cfg), nil)
	f.SetLogger(logger)
	ctx, cancel := context.WithTimeout(context.Background(), fetcherOptions(cfg).Timeout())
	defer cancel()

	raw, err := f.FetchContentUnit(ctx, pos.BaseResource, pos.CurrentIndex)
	if err != nil {
		return fmt.Errorf("fetching chapter %d: %w", pos.CurrentIndex, err)
	}
	tree, heading, err := display.Chapter(raw, displayOptions(cfg))
	if err != nil {
		return fmt.Errorf("chapter %d: %w", pos.CurrentIndex, err)
	}
	logger.Log(ctx, logging.LevelSuccess, "chapter fetched", "index", pos.CurrentIndex, "title", heading)

	// Use terminal width if available, otherwise the configured column
	width := cfg.Display.MaxWidth + 4
	if w, _, werr := render.TerminalSize(); werr == nil {
		width = w
	}
	renderer := document.NewRenderer(render.NewCanvas(width, 0), displayOptions(cfg).Layout)
	renderer.Layout(tree)
	for _, line := range renderer.PlainLines() {
		fmt.Println(line)
	}
	return nil
}

const landingPage = `<html><head><title>pageahead</title></head><body>
<h1>pageahead</h1>
<p>No book open. Start with a book URL and a chapter index:</p>
<p>pageahead https://example.com/book/1 0</p>
<p>Press q to quit.</p>
</body></html>`

func run(cfg *config.Config, start session.Position) error {
	sessionID := uuid.NewString()

	logPath := cfg.Log.File
	if logPath == "" {
		logPath = logging.DefaultPath()
	}
	logFile, err := logging.OpenFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.New(logFile, logging.ParseLevel(cfg.Log.Level), false).With("session", sessionID)

	// Set up terminal
	width, height, err := render.TerminalSize()
	if err != nil {
		return fmt.Errorf("detecting terminal: %w", err)
	}
	term, err := render.NewTerminal(os.Stdin)
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	render.EnterAltScreen(os.Stdout)
	if err := term.EnterRawMode(); err != nil {
		render.ExitAltScreen(os.Stdout)
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer func() {
		term.RestoreMode()
		render.ExitAltScreen(os.Stdout)
	}()

	screen, err := display.New(os.Stdout, width, height, displayOptions(cfg))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	endpoint := endpointFor(cfg)
	fetchOpts := fetcherOptions(cfg)
	save := func(pos session.Position) {
		pos.SessionID = sessionID
		if err := session.Save(pos); err != nil {
			logger.Warn("session: save failed", "error", err)
		}
	}

	coordFetcher := fetcher.New(endpoint, fetchOpts, nil)
	coordFetcher.SetLogger(logger)
	coord := readahead.New(endpoint, coordFetcher, screen,
		readahead.WithLogger(logger),
		readahead.WithContext(ctx),
		readahead.OnMove(save),
	)

	// The viewer's traffic is observed; the coordinator's own fetches are not
	client := observer.NewClient(&http.Client{Timeout: fetchOpts.Timeout()}, coord)
	keys := keysFor(cfg)
	host := viewer.New(client, endpoint, screen, keys, logger).WithContext(ctx)

	icptOpts := gesture.InterceptorOptions{
		ContextMarker:  cfg.Interceptor.ContextMarker,
		ControlSurface: cfg.Interceptor.ControlSurface,
		Advance:        keys.Advance,
		Retreat:        keys.Retreat,
	}

	var pipeline gesture.Pipeline
	pipeline.Register(gesture.PriorityHost, host)
	pipeline.Register(gesture.PriorityCapture, gesture.NewInterceptor(coord, host, icptOpts, logger))

	if start.Known() {
		logger.Info("opening", "index", start.CurrentIndex)
		if err := host.Open(start.BaseResource, start.CurrentIndex); err != nil {
			return err
		}
		readyOpts := readiness.Options{
			Interval:    time.Duration(cfg.Readiness.IntervalMillis) * time.Millisecond,
			MaxAttempts: cfg.Readiness.MaxAttempts,
		}
		readiness.Watch(ctx, readyOpts, screen.HasContentRegion, func(err error) {
			switch {
			case err == nil:
				logger.Log(ctx, logging.LevelSuccess, "readiness: content region found")
			case ctx.Err() == nil:
				logger.Warn("readiness: content region never appeared", "error", err)
			}
		})
	} else if err := screen.Show(landingPage); err != nil {
		return err
	}

	// Handle resize signals in background
	resizeCh := make(chan os.Signal, 1)
	signal.Notify(resizeCh, syscall.SIGWINCH)
	defer signal.Stop(resizeCh)
	go func() {
		for range resizeCh {
			if w, h, err := render.TerminalSize(); err == nil {
				screen.Resize(w, h)
			}
		}
	}()

	spinner := render.NewSpinner(render.SpinnerBraille)
	spinning := false
	tick := func() {
		switch busy := coord.Session().Busy(); {
		case busy:
			if spinner.Tick() || !spinning {
				screen.SetStatus(spinner.Frame() + " reading ahead")
			}
			spinning = true
		case spinning:
			spinning = false
			spinner.Reset()
			screen.SetStatus("")
		}
	}

	if err := host.Run(os.Stdin, &pipeline, tick); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	// Stop in-flight fetches and keep the furthest-known position
	cancel()
	coord.Wait()
	host.Wait()
	if pos := coord.Position(); pos.Known() {
		save(pos)
	} else if book, index := host.Position(); book != "" {
		save(session.Position{BaseResource: book, CurrentIndex: index})
	}
	logger.Info("bye")
	return nil
}
