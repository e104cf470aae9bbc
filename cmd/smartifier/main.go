package main

import (
	"os"

	"smartifier/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
