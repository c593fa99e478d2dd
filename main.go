package main

import (
	_ "go.uber.org/automaxprocs"

	"ticket-gate/cmd"
)

func main() {
	cmd.Start()
}
