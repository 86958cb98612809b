package main

import "github.com/gemeenteweb/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
