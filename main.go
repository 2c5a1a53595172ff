package main

import (
	"os"

	"postexplorer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
