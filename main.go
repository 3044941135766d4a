package main

import "github.com/dh1tw/speechBridge/cmd"

func main() {
	cmd.Execute()
}
