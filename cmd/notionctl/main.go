package main

import (
	"os"

	"github.com/samvad-hq/notion-records/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
