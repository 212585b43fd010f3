package main

import "github.com/bryanchriswhite/VRPlayer/cmd/vrplayer/commands"

func main() {
	commands.Execute()
}
