// cairofuzz is a coverage-guided fuzzing engine for Cairo/StarkNet
// contract entrypoints, driven by an execution adapter the operator
// supplies for their own VM integration. This binary ships the core plus
// a deterministic in-process demo adapter so the engine can be exercised
// end to end without a real Cairo VM on hand.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cairofuzz/cairofuzz/internal/config"
	"github.com/cairofuzz/cairofuzz/internal/coordinator"
	"github.com/cairofuzz/cairofuzz/internal/corpusfile"
	"github.com/cairofuzz/cairofuzz/internal/execadapter/demo"
	"github.com/cairofuzz/cairofuzz/internal/report"
	"github.com/cairofuzz/cairofuzz/internal/session"
	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/internal/ui"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

var version = "0.1.0-dev"

var (
	bytecodePath string
	entrypoint   string
	configPath   string
	cores        int
	seed         int64
	runTime      int
	iterations   int64
	stateful     bool
	maxRate      float64
	reportAddr   string
	corpusPath   string
	crashPath    string
	minimize     bool
	tui          bool
)

func main() {
	root := &cobra.Command{
		Use:   "cairofuzz",
		Short: "cairofuzz - coverage-guided fuzzing for Cairo/StarkNet bytecode",
	}

	fuzzCmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run a fuzzing session against a registered demo entrypoint",
		Run:   runFuzz,
	}
	addSessionFlags(fuzzCmd)
	fuzzCmd.Flags().BoolVar(&tui, "tui", false, "run a live terminal dashboard instead of line-oriented status output")
	root.AddCommand(fuzzCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a corpus/crash seed file without mutation",
		Run:   runReplay,
	}
	addSessionFlags(replayCmd)
	replayCmd.Flags().BoolVar(&minimize, "minimize", false, "emit the minimized corpus after replay")
	root.AddCommand(replayCmd)

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "List the built-in demo entrypoints available to --entrypoint",
		Run:   runDemoList,
	}
	root.AddCommand(demoCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cairofuzz version %s\n", version)
		},
	}
	root.AddCommand(versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&bytecodePath, "bytecode", "b", "", "path to the bytecode artifact (opaque to the core)")
	cmd.Flags().StringVarP(&entrypoint, "entrypoint", "e", "", "entrypoint name to resolve and fuzz")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML session config")
	cmd.Flags().IntVar(&cores, "cores", 1, "number of parallel workers")
	cmd.Flags().Int64Var(&seed, "seed", 0, "64-bit PRNG seed (0 = wall-clock nanos)")
	cmd.Flags().IntVar(&runTime, "run-time", 0, "wall-clock cap in seconds (0 = no cap)")
	cmd.Flags().Int64Var(&iterations, "iterations", -1, "per-worker iteration cap (-1 = infinite)")
	cmd.Flags().BoolVar(&stateful, "stateful", false, "carry adapter state forward across calls in one worker")
	cmd.Flags().Float64Var(&maxRate, "max-rate", 0, "executions/sec throttle per worker (0 = unthrottled)")
	cmd.Flags().StringVar(&reportAddr, "report-addr", "", "address to serve live stats on (empty disables the server)")
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "corpus seed file path")
	cmd.Flags().StringVar(&crashPath, "crashes", "", "crash seed file path")
}

func loadSessionConfig() *config.Config {
	cfg := config.DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			fmt.Printf("  [!] failed to read config %s: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg, err = config.Load(data)
		if err != nil {
			fmt.Printf("  [!] failed to parse config %s: %v\n", configPath, err)
			os.Exit(1)
		}
	}
	applyFlagOverrides(cfg)
	return cfg
}

func applyFlagOverrides(cfg *config.Config) {
	if bytecodePath != "" {
		cfg.Target.BytecodePath = bytecodePath
	}
	if entrypoint != "" {
		cfg.Target.Entrypoint = entrypoint
	}
	if cores > 0 {
		cfg.Session.Cores = cores
	}
	if seed != 0 {
		cfg.Session.Seed = seed
	}
	if runTime > 0 {
		cfg.Session.RunTimeSeconds = runTime
	}
	if iterations != -1 {
		cfg.Session.Iterations = iterations
	}
	cfg.Session.Stateful = cfg.Session.Stateful || stateful
	if maxRate > 0 {
		cfg.Session.MaxExecRate = maxRate
	}
	if reportAddr != "" {
		cfg.Output.ReportAddr = reportAddr
	}
	if corpusPath != "" {
		cfg.Output.CorpusFile = corpusPath
	}
	if crashPath != "" {
		cfg.Output.CrashFile = crashPath
	}
}

// cliNotifier forwards events to an optional report.Server (nil when no
// --report-addr was given) and a corpusfile.Writer (whose corpus or crash
// half does nothing when its path is empty), and prints operator-facing
// status lines, following the teacher's [*]/[!]/[+] prefix convention for
// the one event the operator cares about directly: a first-seen crash.
type cliNotifier struct {
	srv    *report.Server
	writer *corpusfile.Writer
}

func newCLINotifier(addr, corpusPath, crashPath string) *cliNotifier {
	var srv *report.Server
	if addr != "" {
		srv = report.New()
		go func() {
			if err := srv.Listen(addr); err != nil {
				fmt.Printf("  [!] report server error: %v\n", err)
			}
		}()
	}
	return &cliNotifier{srv: srv, writer: corpusfile.NewWriter(corpusPath, crashPath)}
}

// Report forwards the snapshot to the status server, if running; the CLI
// itself doesn't print per-second stats to keep the terminal quiet.
func (n *cliNotifier) Report(snap session.StatsSnapshot) {
	if n.srv != nil {
		n.srv.Report(snap)
	}
}

// CrashFirstSeen prints the one-shot diagnostic, forwards the event to the
// status server if running, and appends the triggering input to the crash
// seed file if one was configured.
func (n *cliNotifier) CrashFirstSeen(workerID int, kind trace.ErrorKind, msg string, input slotval.Vector) {
	fmt.Printf("  [+] worker %d -- crash %s: %s -- input %s\n", workerID, kind, msg, input)
	if n.srv != nil {
		n.srv.CrashFirstSeen(workerID, kind, msg, input)
	}
	if err := n.writer.RecordCrash(input, kind, msg); err != nil {
		fmt.Printf("  [!] failed to record crash seed: %v\n", err)
	}
}

// CoveragePromoted appends a newly-promoted corpus input to the corpus seed
// file if one was configured.
func (n *cliNotifier) CoveragePromoted(workerID int, input slotval.Vector) {
	if err := n.writer.RecordInput(input); err != nil {
		fmt.Printf("  [!] failed to record corpus seed: %v\n", err)
	}
}

// Fatal prints the fatal condition that ended a worker.
func (n *cliNotifier) Fatal(workerID int, err error) {
	fmt.Printf("  [!] worker %d terminated: %v\n", workerID, err)
}

func runFuzz(cmd *cobra.Command, args []string) {
	cfg := loadSessionConfig()
	if cfg.Target.Entrypoint == "" {
		fmt.Println("  [!] no --entrypoint specified; run `cairofuzz demo` to list built-ins")
		os.Exit(1)
	}

	adapter := demo.New()
	registerBuiltinPrograms(adapter)

	types := resolveTypes(adapter, cfg.Target.Entrypoint)
	corpusSeeds, err := corpusfile.LoadCorpus(cfg.Output.CorpusFile, types)
	if err != nil {
		fmt.Printf("  [!] %v\n", err)
		os.Exit(1)
	}
	crashSeeds, err := corpusfile.LoadCrashes(cfg.Output.CrashFile, types)
	if err != nil {
		fmt.Printf("  [!] %v\n", err)
		os.Exit(1)
	}

	var reporter coordinator.StatusReporter
	var dashboard *ui.Dashboard
	var cliStatus *cliNotifier
	if tui {
		dashboard = ui.NewDashboard(cfg.Target.Entrypoint)
		dashboard.SetWriter(corpusfile.NewWriter(cfg.Output.CorpusFile, cfg.Output.CrashFile))
		reporter = dashboard
	} else {
		cliStatus = newCLINotifier(cfg.Output.ReportAddr, cfg.Output.CorpusFile, cfg.Output.CrashFile)
		reporter = cliStatus
	}

	co, err := coordinator.New(adapter, coordinator.Options{
		Cores:          cfg.Session.Cores,
		Seed:           cfg.Session.Seed,
		RunTimeSeconds: cfg.Session.RunTimeSeconds,
		Iterations:     cfg.Session.Iterations,
		MaxExecRate:    cfg.Session.MaxExecRate,
		Bytecode:       []byte(cfg.Target.BytecodePath),
		Entrypoint:     cfg.Target.Entrypoint,
		Stateful:       cfg.Session.Stateful,
		InitialCorpus:  corpusSeeds,
		InitialCrashes: crashSeeds,
		StatusReport:   reporter,
	})
	if err != nil {
		fmt.Printf("  [!] %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if dashboard != nil {
		runDone := make(chan error, 1)
		go func() { runDone <- co.Run() }()
		go func() {
			<-sigChan
			co.Stop()
		}()

		if err := ui.Run(dashboard); err != nil {
			fmt.Printf("  [!] dashboard error: %v\n", err)
		}
		co.Stop()
		<-runDone
	} else {
		fmt.Printf("  [*] Fuzzing %s with %d core(s), seed=%d\n", cfg.Target.Entrypoint, cfg.Session.Cores, cfg.Session.Seed)
		go func() {
			<-sigChan
			fmt.Println("\n  [*] Shutting down gracefully...")
			co.Stop()
		}()

		if err := co.Run(); err != nil {
			fmt.Printf("  [!] %v\n", err)
			os.Exit(1)
		}
	}

	snap := co.Shared().StatsSnapshot()
	fmt.Printf("  [*] Done. executions=%d coverage=%d corpus=%d crashes=%d unique=%d\n",
		snap.TotalExecutions, snap.CoverageSize, snap.CorpusSize, snap.CrashesTotal, snap.UniqueCrashes)
}

func runReplay(cmd *cobra.Command, args []string) {
	cfg := loadSessionConfig()
	if cfg.Target.Entrypoint == "" {
		fmt.Println("  [!] no --entrypoint specified; run `cairofuzz demo` to list built-ins")
		os.Exit(1)
	}

	adapter := demo.New()
	registerBuiltinPrograms(adapter)
	types := resolveTypes(adapter, cfg.Target.Entrypoint)

	corpusSeeds, err := corpusfile.LoadCorpus(cfg.Output.CorpusFile, types)
	if err != nil {
		fmt.Printf("  [!] %v\n", err)
		os.Exit(1)
	}
	crashSeeds, err := corpusfile.LoadCrashes(cfg.Output.CrashFile, types)
	if err != nil {
		fmt.Printf("  [!] %v\n", err)
		os.Exit(1)
	}

	notifier := newCLINotifier(cfg.Output.ReportAddr, cfg.Output.CorpusFile, cfg.Output.CrashFile)
	co, err := coordinator.New(adapter, coordinator.Options{
		Cores:          cfg.Session.Cores,
		Bytecode:       []byte(cfg.Target.BytecodePath),
		Entrypoint:     cfg.Target.Entrypoint,
		Stateful:       cfg.Session.Stateful,
		InitialCrashes: crashSeeds,
		StatusReport:   notifier,
	})
	if err != nil {
		fmt.Printf("  [!] %v\n", err)
		os.Exit(1)
	}

	minimized, err := co.RunReplay(corpusSeeds, minimize)
	if err != nil {
		fmt.Printf("  [!] %v\n", err)
		os.Exit(1)
	}

	snap := co.Shared().StatsSnapshot()
	fmt.Printf("  [*] Replay complete. coverage=%d crashes=%d unique=%d\n", snap.CoverageSize, snap.CrashesTotal, snap.UniqueCrashes)
	if minimize {
		fmt.Printf("  [*] Minimized corpus: %d inputs\n", len(minimized))
	}
}

func runDemoList(cmd *cobra.Command, args []string) {
	adapter := demo.New()
	names := registerBuiltinPrograms(adapter)
	fmt.Println("  Built-in demo entrypoints:")
	for _, n := range names {
		fmt.Printf("    - %s\n", n)
	}
}
