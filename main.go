package main

import "github.com/shelfgate/shelfgate/cmd"

func main() {
	cmd.Execute()
}
