package main

import "github.com/samnang/facecheck/cmd"

func main() {
	cmd.Execute()
}
