package main

import "github.com/nfrund/gatehouse/cmd/gatehouse-cli/cmd"

func main() {
	cmd.Execute()
}
