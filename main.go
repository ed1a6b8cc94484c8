package main

import (
	"log"

	"github.com/dyike/PromptBench/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("promptbench failed: %v", err)
	}
}
