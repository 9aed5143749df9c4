package main

import (
	"os"

	"github.com/odyssey-erp/bukubesar/cmd/bukuctl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
