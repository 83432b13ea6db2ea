package main

import "reels-relay/cmd"

func main() {
	cmd.Execute()
}
