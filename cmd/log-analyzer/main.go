package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"log-analyzer/internal/analyzer"
	"log-analyzer/internal/audit"
	"log-analyzer/internal/config"
	"log-analyzer/internal/explain"
	"log-analyzer/internal/notify"
	"log-analyzer/internal/state"
	"log-analyzer/internal/types"
)

const defaultConfigPath = "config.json"

func main() {
	args := os.Args[1:]
	cmd := "analyze"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "analyze":
		analyzeCommand(args)
	case "alerts":
		alertsCommand(args)
	case "history":
		historyCommand(args)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: log-analyzer [command] [flags]")
	fmt.Println("Commands:")
	fmt.Println("  analyze   Analyze the log file and write reports (default)")
	fmt.Println("  alerts    Print the alert log")
	fmt.Println("  history   List previous runs from the state database")
}

func analyzeCommand(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	logFile := fs.String("logfile", "", "Path to the log file to analyze")
	reportFile := fs.String("reportfile", "", "Path to the output CSV report")
	threshold := fs.Int("threshold", 0, "Failed attempts threshold")
	fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	applyOverrides(cfg, fs, *logFile, *reportFile, *threshold)
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}
	if err := config.ExistingFile(cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "log-analyzer: --logfile: %v\n", err)
		os.Exit(1)
	}
	if err := config.EnsureDirs(cfg); err != nil {
		log.Fatalf("Failed to prepare output directories: %v", err)
	}

	opts, cleanup := buildOptions(cfg)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := analyzer.New(cfg, opts...).Run(ctx); err != nil {
		cleanup()
		log.Fatalf("Analysis failed: %v", err)
	}
}

// applyOverrides copies the flags that were set on the command line into cfg
func applyOverrides(cfg *types.Config, fs *flag.FlagSet, logFile, reportFile string, threshold int) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "logfile":
			cfg.LogFile = logFile
		case "reportfile":
			cfg.ReportFile = reportFile
		case "threshold":
			cfg.Threshold = &threshold
		}
	})
}

// buildOptions wires the optional integrations named in the config
func buildOptions(cfg *types.Config) ([]analyzer.Option, func()) {
	var opts []analyzer.Option
	cleanup := func() {}

	if cfg.Explain.EnableLocalLLM {
		log.Printf("[EXPLAIN] Enabling Local LLM Integration (%s)", cfg.Explain.LocalLLMModel)
		llm := explain.NewLLMExplainer(cfg.Explain.LocalLLMUrl, cfg.Explain.LocalLLMModel)
		opts = append(opts, analyzer.WithExplainer(explain.NewWithFallback(llm)))
	}

	if cfg.AuditLogFile != "" {
		opts = append(opts, analyzer.WithAuditLogger(audit.NewLogger(cfg.AuditLogFile)))
	}

	if cfg.Notification.DiscordWebhook != "" {
		opts = append(opts, analyzer.WithNotifier(notify.NewDiscordNotifier(cfg.Notification.DiscordWebhook)))
	}

	if cfg.StateDB != "" {
		store, err := state.NewStore(cfg.StateDB)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize state store: %v", err)
		} else {
			opts = append(opts, analyzer.WithStore(store))
			cleanup = func() { store.Close() }
		}
	}

	return opts, cleanup
}

func alertsCommand(args []string) {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	content, err := os.ReadFile(cfg.AlertLogFile)
	if os.IsNotExist(err) {
		fmt.Println("No alerts recorded.")
		return
	}
	if err != nil {
		log.Fatalf("Error reading alert log: %v", err)
	}
	fmt.Print(string(content))
}

func historyCommand(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	limit := fs.Int("limit", 10, "Number of runs to show")
	runID := fs.String("run", "", "Show the alerts of one run instead of the run list")
	fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StateDB == "" {
		fmt.Println("Error: state_db not defined in config")
		os.Exit(1)
	}

	store, err := state.NewStore(cfg.StateDB)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer store.Close()

	if *runID != "" {
		alerts, err := store.Alerts(*runID)
		if err != nil {
			log.Fatalf("Failed to load alerts: %v", err)
		}
		if len(alerts) == 0 {
			fmt.Printf("No alerts stored for run %s\n", *runID)
			return
		}
		for _, a := range alerts {
			fmt.Println(a.Line())
			if a.Explanation != "" {
				fmt.Printf("  %s\n", a.Explanation)
			}
		}
		return
	}

	runs, err := store.RecentRuns(*limit)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tLOG FILE\tPARSED\tMALFORMED\tSUSPICIOUS\tROWS\tALERTS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(types.TimestampLayout), r.LogFile,
			r.LinesParsed, r.LinesMalformed, r.SuspiciousCount, r.ReportRows, r.AlertCount)
	}
	w.Flush()
}
