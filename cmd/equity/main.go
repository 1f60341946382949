package main

import "github.com/rustyeddy/equity/internal/cli"

func main() {
	cli.Execute()
}
