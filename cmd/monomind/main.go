// Package main provides the MonoMind command line tool. It softens the tone
// of an HTML page in place, or serves the tone router over stdio so a host
// can apply and revert softening on a live document.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LuyGGG/MonoMind/pkg/config"
	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/LuyGGG/MonoMind/pkg/logging"
	"github.com/LuyGGG/MonoMind/pkg/render"
	"github.com/LuyGGG/MonoMind/pkg/router"
	"github.com/LuyGGG/MonoMind/pkg/tone"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Input       string
	URL         string
	Output      string
	ConfigFile  string
	Profile     string
	Backend     string
	Level       string
	Directive   string
	APIKey      string
	BaseURL     string
	Model       string
	Concurrency int
	Timeout     time.Duration
	Headed      bool
	Serve       bool
	Color       bool
	Copy        bool
	ShowVersion bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func main() {
	cli := parseFlags(flag.CommandLine, os.Args[1:])

	if cli.ShowVersion {
		fmt.Printf("MonoMind v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cli, os.Stdin, os.Stdout); err != nil {
		cancel()
		log.Printf("monomind: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses args into a CLIConfig. It exits on -h like flag.Parse.
func parseFlags(fs *flag.FlagSet, args []string) *CLIConfig {
	cli := &CLIConfig{set: make(map[string]bool)}

	fs.StringVar(&cli.Input, "in", "", "HTML file to soften (- for stdin)")
	fs.StringVar(&cli.URL, "url", "", "Fetch and soften the rendered page at this URL")
	fs.StringVar(&cli.Output, "out", "", "Write the softened HTML here (default stdout)")
	fs.StringVar(&cli.ConfigFile, "config", "", "Path to the JSON config (default ~/.monomind/config.json)")
	fs.StringVar(&cli.Profile, "profile", "", "YAML run profile overlaid on the config")
	fs.StringVar(&cli.Backend, "backend", "", "Rewrite backend: dictionary or llm")
	fs.StringVar(&cli.Level, "level", "", "Dictionary softening level: soft, medium or max")
	fs.StringVar(&cli.Directive, "directive", "", "Style directive passed to the rewrite backend")
	fs.StringVar(&cli.APIKey, "api-key", "", "API key for the llm backend")
	fs.StringVar(&cli.BaseURL, "base-url", "", "Base URL of an OpenAI-compatible API")
	fs.StringVar(&cli.Model, "model", "", "Model used by the llm backend")
	fs.IntVar(&cli.Concurrency, "concurrency", 0, "Maximum rewrite calls in flight")
	fs.DurationVar(&cli.Timeout, "timeout", 0, "Per-call rewrite timeout")
	fs.BoolVar(&cli.Headed, "headed", false, "Show the browser window when fetching -url")
	fs.BoolVar(&cli.Serve, "serve", false, "Serve tone:* requests as NDJSON on stdin/stdout")
	fs.BoolVar(&cli.Color, "color", false, "Syntax-highlight the HTML written to a terminal")
	fs.BoolVar(&cli.Copy, "copy", false, "Copy the softened HTML to the clipboard")
	fs.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "MonoMind - calm the tone of web pages\n\n")
		fmt.Fprintf(out, "Usage: monomind [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  monomind -in page.html -out page.soft.html\n")
		fmt.Fprintf(out, "  monomind -url https://example.com -backend llm -color\n")
		fmt.Fprintf(out, "  monomind -in page.html -serve -out page.soft.html\n")
	}

	_ = fs.Parse(args)
	fs.Visit(func(f *flag.Flag) { cli.set[f.Name] = true })
	return cli
}

// run executes one CLI invocation.
func run(ctx context.Context, cli *CLIConfig, stdin io.Reader, stdout io.Writer) error {
	// On error NewLogger returns a stderr logger
	logger, _ := logging.NewLogger("monomind")
	defer logger.Close()
	logger.Infof("MonoMind v%s starting", version)

	manager, profile, err := loadSettings(cli)
	if err != nil {
		return err
	}
	if profile != nil {
		cli.mergeProfile(profile)
	}

	toneSection, _ := manager.GetSection(config.SectionIDTone)
	settings := toneSection.(*config.ToneSection).Settings()
	llmSection, _ := manager.GetSection(config.SectionIDLLM)

	svc, err := buildService(settings, llmSection.(*config.LLMSection), cli, logger)
	if err != nil {
		return err
	}

	opts, err := controllerOptions(settings, logger)
	if err != nil {
		return err
	}

	doc, err := loadDocument(ctx, cli, stdin)
	if err != nil {
		return err
	}

	ctrl := tone.NewController(doc, svc, opts...)
	defer ctrl.Teardown()

	if cli.Serve {
		logger.Infof("Serving tone router on stdio for %s", describeSource(cli))
		if err := router.New(ctrl, logger.With("router")).Serve(ctx, stdin, stdout); err != nil {
			return fmt.Errorf("router stopped: %w", err)
		}
		if cli.Output == "" {
			return nil
		}
		return writeDocument(doc, cli, io.Discard)
	}

	start := time.Now()
	result := ctrl.Apply(ctx)
	logger.Infof("Apply finished in %s: %+v", time.Since(start), result)

	if err := writeDocument(doc, cli, stdout); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, summary(result, ctrl.Stats(), settings.Backend, time.Since(start)))

	if !result.OK {
		return fmt.Errorf("apply failed: %s", result.Error)
	}
	return nil
}

// loadSettings builds the config manager from the JSON store and overlays
// the profile and explicit flags.
func loadSettings(cli *CLIConfig) (*config.Manager, *config.Profile, error) {
	if err := config.Initialize(cli.ConfigFile); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}
	manager := config.Global()

	var profile *config.Profile
	if cli.Profile != "" {
		p, err := config.LoadProfile(cli.Profile)
		if err != nil {
			return nil, nil, err
		}
		if err := p.Apply(manager); err != nil {
			return nil, nil, err
		}
		profile = p
	}

	if err := cli.applyFlags(manager); err != nil {
		return nil, nil, err
	}
	return manager, profile, nil
}

// applyFlags overlays explicitly set flags onto the tone section.
func (cli *CLIConfig) applyFlags(manager *config.Manager) error {
	overlay := map[string]any{}
	if cli.set["backend"] {
		overlay["backend"] = cli.Backend
	}
	if cli.set["level"] {
		overlay["level"] = cli.Level
	}
	if cli.set["concurrency"] {
		overlay["concurrency"] = cli.Concurrency
	}
	if cli.set["timeout"] {
		overlay["timeout"] = cli.Timeout.String()
	}
	if cli.set["directive"] {
		overlay["style_directive"] = cli.Directive
	}
	if len(overlay) == 0 {
		return nil
	}

	section, ok := manager.GetSection(config.SectionIDTone)
	if !ok {
		return fmt.Errorf("tone section not registered")
	}
	if err := section.SetData(overlay); err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	if err := section.Validate(); err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	return nil
}

// mergeProfile fills I/O locations the flags left empty.
func (cli *CLIConfig) mergeProfile(p *config.Profile) {
	if cli.Input == "" && cli.URL == "" {
		cli.Input = p.Input
		cli.URL = p.URL
	}
	if cli.Output == "" {
		cli.Output = p.Output
	}
}

// loadDocument reads the page from -url, -in, or stdin.
func loadDocument(ctx context.Context, cli *CLIConfig, stdin io.Reader) (*dom.Document, error) {
	switch {
	case cli.Input != "" && cli.URL != "":
		return nil, fmt.Errorf("-in and -url are mutually exclusive")

	case cli.URL != "":
		page, err := render.Fetch(ctx, cli.URL, render.Options{Headed: cli.Headed})
		if err != nil {
			return nil, err
		}
		doc, err := dom.ParseString(page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cli.URL, err)
		}
		return doc.WithURL(cli.URL), nil

	case cli.Input != "" && cli.Input != "-":
		f, err := os.Open(cli.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		doc, err := dom.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cli.Input, err)
		}
		return doc, nil

	default:
		if cli.Serve {
			// stdin carries router requests
			return nil, fmt.Errorf("-serve needs -in or -url")
		}
		doc, err := dom.Parse(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stdin: %w", err)
		}
		return doc, nil
	}
}

func describeSource(cli *CLIConfig) string {
	if cli.URL != "" {
		return cli.URL
	}
	return strings.TrimSpace(cli.Input)
}
