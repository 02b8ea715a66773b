package main

import "stacksgw/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
