package main

import "github.com/radiofrance/podgen/cmd"

func main() {
	cmd.Execute()
}
