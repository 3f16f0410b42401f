package main

import "github.com/jcdickinson/symdoc/cmd"

func main() {
	cmd.Execute()
}
