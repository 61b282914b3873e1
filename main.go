package main

import (
	"context"
	"fmt"
	"os"

	"github.com/limmweb/instagram-ai-commentator/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}
