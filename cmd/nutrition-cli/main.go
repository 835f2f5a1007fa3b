package main

import "nutrition-lookup/internal/cli"

func main() {
	cli.Execute()
}
