package main

import "github.com/mabhi256/livetree/cmd"

func main() {
	cmd.Execute()
}
