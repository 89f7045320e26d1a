// labelsheet lays the cells of a delimited text file out as printable
// labels and exports the sheets as a PDF.
//
// Usage:
//
//	labelsheet export [flags] <file.csv>
//	labelsheet preview [flags] <file.csv>
//	labelsheet layouts [name...]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/porticus-lab/labelsheet/cmd/labelsheet/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.RootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
