/*
Package main implements the bpedash terminal dashboard for a BPE tokenizer-training service.

Note: This is a BETA release. APIs and functionality may rapidly change.

bpedash never tokenizes anything itself. It talks to a running training service over
HTTP/JSON and a websocket push channel, keeps a live view of the training progress, and
lets you tokenize text and start training runs.

# Usage

Start the dashboard against the default service at http://localhost:8000:

	bpedash

Point at another service and enable debug logging:

	bpedash -url http://10.0.0.5:8000 -d

Run the line-oriented CLI instead of the TUI:

	bpedash -c

Export the current training curve of a metric as a PNG and exit:

	bpedash -chart curve.png -metric vocab_sizes

Export merge frequency over merge steps of the learned vocabulary:

	bpedash -growth-chart growth.png

# Configuration

Runtime configuration is read from a TOML file, created with defaults when missing:

	[server]
	base_url = "http://localhost:8000"
	ws_path = "/ws"
	timeout_ms = 10000

	[sync]
	poll_interval_ms = 5000
	enable_push = true
	recent_window = 10

	[control]
	default_max_sentences = 10000
	default_vocab_size = 10000

Flags override the file. Reset the file at the default location with:

	bpedash -rebuild-config

# Sync

Training progress arrives from a poll of /training-progress every poll interval and from
training_update messages on the push channel. Both are merged field by field into one
state. When the push channel drops, polling carries on alone.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/bpedash/internal/chart"
	"github.com/bastiangx/bpedash/internal/cli"
	"github.com/bastiangx/bpedash/internal/logger"
	"github.com/bastiangx/bpedash/internal/tui"
	"github.com/bastiangx/bpedash/internal/utils"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/config"
	"github.com/bastiangx/bpedash/pkg/control"
	"github.com/bastiangx/bpedash/pkg/index"
	"github.com/bastiangx/bpedash/pkg/progress"
	"github.com/bastiangx/bpedash/pkg/push"
	"github.com/bastiangx/bpedash/pkg/tokenize"
	"github.com/bastiangx/bpedash/pkg/view"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "bpedash"
)

// sigHandler cancels the root context on SIGINT/SIGTERM so components tear down cleanly.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
	}()
}

// main only wires packages together and manages the flow.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a config.toml")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the line CLI instead of the TUI")
	baseURL := flag.String("url", "", "Base URL of the training service (overrides config)")
	pollMs := flag.Int("poll", 0, "Poll interval in milliseconds (overrides config)")
	noPush := flag.Bool("no-push", false, "Disable the websocket push channel")
	chartOut := flag.String("chart", "", "Write the selected metric chart to this PNG and exit")
	growthOut := flag.String("growth-chart", "", "Write the vocabulary growth chart to this PNG and exit")
	metric := flag.String("metric", "", "Metric for -chart and the progress view")
	rebuildConfig := flag.Bool("rebuild-config", false, "Rewrite the default config.toml with defaults and exit")
	logFile := flag.String("log", "bpedash.log", "Log file used while the TUI owns the terminal")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *rebuildConfig {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		logger.Plain(os.Stderr).Printf("Rebuilt config at %s", path)
		return
	}

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))
	applyFlags(cfg, *baseURL, *pollMs, *noPush, *metric)

	if *chartOut != "" || *growthOut != "" {
		if err := exportCharts(ctx, cfg, *chartOut, *growthOut); err != nil {
			log.Fatalf("Chart export failed: %v", err)
		}
		return
	}

	tuiMode := !*cliMode
	if tuiMode {
		f, err := utils.OpenLogFile(*logFile)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logger.Redirect(f)
	}

	sigHandler(cancel)

	client := api.NewClient(cfg.Server.BaseURL, cfg.Server.Timeout())
	var sub progress.Subscriber
	if cfg.Sync.EnablePush {
		wsURL, err := client.PushURL(cfg.Server.WSPath)
		if err != nil {
			log.Fatalf("Invalid push url: %v", err)
		}
		sub = push.NewSubscriber(wsURL)
	}

	tokens := tokenize.NewController(client)
	syncer := progress.NewSynchronizer(client, sub, cfg.Sync.PollInterval())
	dispatcher := control.NewDispatcher(client)
	ix := index.New()
	opts := cli.Options{
		Metric:              view.MetricKey(cfg.CLI.DefaultMetric),
		RecentWindow:        cfg.Sync.RecentWindow,
		FindLimit:           cfg.CLI.FindLimit,
		DefaultMaxSentences: cfg.Control.DefaultMaxSentences,
		DefaultVocabSize:    cfg.Control.DefaultVocabSize,
	}
	log.Debug("Dashboard options", "opts", opts.String(), "url", cfg.Server.BaseURL)

	syncer.Start(ctx)
	defer syncer.Stop()

	if *cliMode {
		showStartupInfo(cfg)
		handler := cli.NewInputHandler(client, tokens, syncer, dispatcher, ix, opts, os.Stdin, os.Stdout)
		if err := handler.Start(ctx); err != nil {
			log.Errorf("CLI error: %v", err)
		}
		return
	}

	model := tui.New(ctx, client, tokens, syncer, dispatcher, ix, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Errorf("TUI error: %v", err)
	}
}

// applyFlags lets explicit flags win over config values.
func applyFlags(cfg *config.Config, baseURL string, pollMs int, noPush bool, metric string) {
	if baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if pollMs > 0 {
		cfg.Sync.PollIntervalMs = pollMs
	}
	if noPush {
		cfg.Sync.EnablePush = false
	}
	if metric != "" {
		cfg.CLI.DefaultMetric = metric
	}
	if n := cfg.Normalize(); n > 0 {
		log.Debugf("Replaced %d invalid config values with defaults", n)
	}
}

// exportCharts writes the requested PNGs with one client and a bounded context.
func exportCharts(ctx context.Context, cfg *config.Config, seriesPath, growthPath string) error {
	client := api.NewClient(cfg.Server.BaseURL, cfg.Server.Timeout())
	ctx, cancel := context.WithTimeout(ctx, 2*cfg.Server.Timeout()+time.Second)
	defer cancel()

	out := logger.Plain(os.Stderr)
	if seriesPath != "" {
		metric := view.MetricKey(cfg.CLI.DefaultMetric)
		if err := chart.ExportSeries(ctx, client, metric, seriesPath); err != nil {
			return err
		}
		out.Printf("Wrote %s chart to %s", metric, seriesPath)
	}
	if growthPath != "" {
		if err := chart.ExportGrowth(ctx, client, growthPath); err != nil {
			return err
		}
		out.Printf("Wrote vocabulary growth chart to %s", growthPath)
	}
	return nil
}

func printVersion() {
	banner := logger.Plain(os.Stderr)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ bpedash ] live view of a BPE tokenizer training run")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(cfg *config.Config) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("=========")
	println(" bpedash ")
	println("=========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("service: ( %s )", cfg.Server.BaseURL)
	log.Infof("poll: every %v, push: %t", cfg.Sync.PollInterval(), cfg.Sync.EnablePush)
	println("=========")

	log.SetLevel(currentLevel)
}
