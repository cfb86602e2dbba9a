package main

import "github.com/mish-shell/mish/cmd"

func main() {
	cmd.Execute()
}
