package main

import (
	"os"

	"github.com/dshills/bestrev/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
