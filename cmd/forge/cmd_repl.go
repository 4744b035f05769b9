package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive Python session in the sandbox",
	Long: `Runs the configured Python binary in interactive mode. Lines you
type are sent to the interpreter; its output streams back. Exit with
Ctrl-D or "exit()".`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	session, err := a.runner.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.Stop()

	// Interpreter output streams independently of the input loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range session.Events() {
			if event.Stream == "stderr" {
				fmt.Fprintln(os.Stderr, event.Line)
			} else {
				fmt.Println(event.Line)
			}
		}
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		if err := session.Send(stdin.Text()); err != nil {
			break
		}
	}

	if err := session.Stop(); err != nil {
		logger.Debug("Session stop reported an error", zap.Error(err))
	}
	<-done
	return nil
}
