package main

import "github.com/mjkio98/clipforge/internal/cli"

func main() {
	cli.Main()
}
