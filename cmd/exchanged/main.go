package main

import (
	"fmt"
	"os"

	"exchangecore/cmd/exchanged/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
