package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/AnyUserName/bambi-editor/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bambi: %v\n", err)
		os.Exit(1)
	}
}
