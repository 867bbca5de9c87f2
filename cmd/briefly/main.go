package main

import (
	"fmt"
	"os"

	"briefly/cmd/briefly/app"
	"briefly/internal/logger"
)

func main() {
	logger.Init()
	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
