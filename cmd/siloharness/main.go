package main

import "github.com/maniacs-sfa/orleans/internal/cli"

func main() {
	cli.Execute()
}
