package main

import "github.com/maxvaer/nitpx/cmd"

func main() {
	cmd.Execute()
}
