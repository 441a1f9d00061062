package main

import (
	"os"

	"github.com/broadsword-framework/broadsword/cmd/broadsword/internal"
)

func main() {
	os.Exit(internal.Execute())
}
