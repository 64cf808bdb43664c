package main

import "github.com/guardiancare/server/cmd"

func main() {
	cmd.Execute()
}
