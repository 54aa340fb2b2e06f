package main

import "github.com/avolette/chordsift/cmd"

func main() {
	cmd.Execute()
}
