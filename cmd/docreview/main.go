package main

import "docreview/internal/cli"

func main() {
	cli.Execute()
}
