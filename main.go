package main

import "renpy-translator/internal/cli"

func main() {
	cli.Execute()
}
