package main

import (
	"github.com/doczir/compton/internal/cli"
)

func main() {
	cli.Execute()
}
