package main

import "chain-dashboard/internal/cli"

func main() {
	cli.Execute()
}
