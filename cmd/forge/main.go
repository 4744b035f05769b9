package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codeforge/internal/config"
	"codeforge/internal/confirm"
	"codeforge/internal/executor"
	"codeforge/internal/intent"
	"codeforge/internal/logging"
	"codeforge/internal/mirror"
	"codeforge/internal/oracle"
	"codeforge/internal/pipeline"
	"codeforge/internal/sandbox"
	"codeforge/internal/store"
)

var (
	// Global flags
	verbose   bool
	workspace string
	projectID string
	timeout   time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "codeforge - chat-driven coding workbench",
	Long: `codeforge turns natural-language instructions into typed project
actions: create projects and files, generate web pages, run Python in a
sandbox, and gate irreversible changes behind explicit confirmation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

// runCmd parses and executes a single instruction
var runCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Parse an instruction into actions and execute them",
	Long: `Sends the instruction to the intent parser and executes each
resulting action in order. Actions that require confirmation print a
token; resolve them with "forge confirm <token>".

Example:
  forge run "create a python project called scraper and run a hello world"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstruction,
}

// confirmCmd resolves a pending confirmation token
var confirmCmd = &cobra.Command{
	Use:   "confirm [token]",
	Short: "Confirm or deny a pending action",
	Long: `Resolves an action held by the confirmation gate. By default the
action is confirmed and executed; pass --deny to discard it.`,
	Args: cobra.ExactArgs(1),
	RunE: confirmAction,
}

var denyFlag bool

// execCmd runs a Python file directly in the sandbox
var execCmd = &cobra.Command{
	Use:   "exec [file.py]",
	Short: "Run a Python file in the execution sandbox",
	Args:  cobra.ExactArgs(1),
	RunE:  execFile,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	runCmd.Flags().StringVar(&projectID, "project", "", "Active project id for \"this project\" references")
	confirmCmd.Flags().BoolVar(&denyFlag, "deny", false, "Deny the pending action instead of confirming")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(projectsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired collaborators behind the CLI commands.
type app struct {
	cfg    *config.Config
	pipe   *pipeline.Pipeline
	store  *store.ProjectStore
	mirror *mirror.Mirror
	runner *sandbox.Runner
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// buildApp loads configuration and wires the full pipeline. Commands
// that never reach the oracle (exec, repl, projects) pass
// needOracle=false so they work without an API key.
func buildApp(needOracle bool) (*app, error) {
	ws := workspace
	if ws == "" {
		ws, _ = os.Getwd()
	}

	cfg, err := config.Load(filepath.Join(ws, ".forge", "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Initialize(ws); err != nil {
		logger.Warn("File logging unavailable", zap.Error(err))
	}

	var client oracle.Client
	if needOracle {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		client, err = oracle.NewFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create oracle client: %w", err)
		}
	}

	st, err := store.NewProjectStore(resolvePath(ws, cfg.Storage.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open project store: %w", err)
	}

	mir, err := mirror.New(resolvePath(ws, cfg.Storage.MirrorRoot))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create mirror: %w", err)
	}

	runner := sandbox.NewRunner(cfg)
	gate, err := confirm.NewPersistentGate(st)
	if err != nil {
		logger.Warn("Pending confirmations unavailable, using in-memory gate", zap.Error(err))
		gate = confirm.NewGate()
	}
	if maxAge := cfg.GetConfirmationMaxAge(); maxAge > 0 {
		gate.Sweep(maxAge)
	}

	exec := executor.New(st, mir, runner, client, gate, cfg.GetLLMTimeout())
	parser := intent.NewParser(client, cfg.GetLLMTimeout())

	return &app{
		cfg:    cfg,
		pipe:   pipeline.New(parser, exec, gate),
		store:  st,
		mirror: mir,
		runner: runner,
	}, nil
}

func resolvePath(ws, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ws, path)
}

func runInstruction(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	message := strings.Join(args, " ")
	logger.Info("Processing instruction", zap.String("input", message))

	result := a.pipe.ParseUserRequest(ctx, message, intent.Context{ProjectID: projectID})
	if result.NeedsMoreInfo {
		fmt.Println(result.Clarification)
		return nil
	}
	if len(result.Actions) == 0 {
		fmt.Println("Nothing to do.")
		return nil
	}

	stdin := bufio.NewReader(os.Stdin)
	for i, action := range result.Actions {
		out := a.pipe.ExecuteAction(ctx, action, "")
		printOutcome(i+1, len(result.Actions), string(action.Type), out)

		if out.RequiresConfirmation {
			fmt.Print("Apply now? [y/N] ")
			answer, _ := stdin.ReadString('\n')
			if strings.EqualFold(strings.TrimSpace(answer), "y") {
				resolved := a.pipe.ConfirmAction(ctx, out.ActionID, true)
				printOutcome(i+1, len(result.Actions), string(action.Type), resolved)
			} else {
				fmt.Printf("Left pending; resolve later with: forge confirm %s\n", out.ActionID)
			}
		}
	}
	return nil
}

func confirmAction(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	out := a.pipe.ConfirmAction(ctx, args[0], !denyFlag)
	printOutcome(1, 1, "confirm", out)
	return nil
}

func execFile(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	result, err := a.runner.RunOnce(ctx, string(code))
	if err != nil {
		return err
	}

	fmt.Print(result.Output)
	if result.Error != "" {
		fmt.Fprint(os.Stderr, result.Error)
	}
	if !result.Success {
		return fmt.Errorf("exited with code %d", result.ExitCode)
	}
	return nil
}

// printOutcome renders one action outcome for the terminal.
func printOutcome(n, total int, label string, out executor.ActionOutcome) {
	status := "ok"
	if !out.Success {
		status = "failed"
	}
	if out.RequiresConfirmation {
		status = "needs confirmation"
	}
	fmt.Printf("[%d/%d] %s: %s - %s\n", n, total, label, status, out.Message)

	if out.RequiresConfirmation {
		fmt.Printf("       %s\n", out.ConfirmationMessage)
		fmt.Printf("       confirm with: forge confirm %s   (or --deny)\n", out.ActionID)
	}
	if len(out.Data) > 0 {
		if encoded, err := json.MarshalIndent(out.Data, "       ", "  "); err == nil {
			fmt.Printf("       %s\n", encoded)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
