package main

import "github.com/dyike/CortexSI/internal/cli"

func main() {
	cli.Run()
}
