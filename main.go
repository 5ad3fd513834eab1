package main

import "github.com/notargets/picgrid/cmd"

func main() {
	cmd.Execute()
}
