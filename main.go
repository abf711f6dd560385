package main

import "github.com/chxlky/trello-agent/cmd"

func main() {
	cmd.Execute()
}
