// main is the entry point for the repomind CLI.
package main

import (
	"fmt"
	"os"

	"github.com/repomind/repomind/cmd"
	"github.com/repomind/repomind/internal/iocache"
	"github.com/repomind/repomind/internal/logger"
)

func main() {
	code := 0
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		code = 1
	}
	iocache.CloseCaching()
	logger.Sync()
	os.Exit(code)
}
