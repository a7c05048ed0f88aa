package main

import "github.com/Skotchmaster/snapcart/services/auth/cmd/authctl/commands"

func main() {
	commands.Execute()
}
