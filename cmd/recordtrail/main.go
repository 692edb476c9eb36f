package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mickamy/recordtrail/internal/cli"
)

func main() {
	if err := cli.NewRoot(nil).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "recordtrail:", err)
		os.Exit(1)
	}
}
