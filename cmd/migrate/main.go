package main

import "github.com/agentbase/migration-runner/internal/cli"

func main() {
	cli.Execute()
}
