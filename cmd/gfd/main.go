package main

import (
	"fmt"
	"os"

	"goldenflop/apps/chain/cmd/gfd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gfd: %v\n", err)
		os.Exit(1)
	}
}
