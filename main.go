package main

import "github.com/KaramelBytes/tabimport-cli/cmd"

func main() {
	cmd.Execute()
}
