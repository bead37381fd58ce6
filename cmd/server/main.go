package main

import "direct-messenger-backend/cmd"

func main() {
	cmd.Run()
}
