package main

import "github.com/mvp-joe/callminer/internal/cli"

func main() {
	cli.Execute()
}
