package main

import "github.com/mcoot/partygame/internal/cli"

func main() {
	cli.Execute()
}
