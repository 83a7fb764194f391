package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	a := &app{openStore: openStore}
	if err := execute(context.Background(), a, newRootCmd(a)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
