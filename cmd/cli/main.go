package main

import (
	"fmt"
	"os"

	_ "github.com/crucial707/bookshelf/cmd/cli/account"
	_ "github.com/crucial707/bookshelf/cmd/cli/auth"
	_ "github.com/crucial707/bookshelf/cmd/cli/reviews"
	"github.com/crucial707/bookshelf/cmd/cli/root"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
