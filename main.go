package main

import (
	"os"

	"github.com/conneroisu/sitecsp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
