package main

import (
	"github.com/basejump-ai/basejump-demo/internal/cli"
)

func main() {
	cli.Execute()
}
