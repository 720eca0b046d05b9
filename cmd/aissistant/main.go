package main

import "aissistant/internal/cli"

func main() {
	cli.Execute()
}
