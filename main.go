package main

import (
	"os"

	"plowdown/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
