// Command tomate is a Pomodoro timer for the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/tomate/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()

	if code := cmd.Report(os.Stderr, err); code != 0 {
		os.Exit(code)
	}
}
