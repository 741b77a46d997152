package main

import "umrah-companion-backend/cmd"

func main() {
	cmd.Run()
}
