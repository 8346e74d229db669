package main

import "github.com/hookview/dashboard/internal/cmd"

func main() {
	cmd.Execute()
}
