package main

import "github.com/yuchdev/subswap/cmd"

func main() {
	cmd.Execute()
}
