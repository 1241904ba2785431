// atmoforce - atmosphere forcing chains for ice-sheet models.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"atmoforce/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "atmoforce: %v\n", err)
		os.Exit(1)
	}
}
