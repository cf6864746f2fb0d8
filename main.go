package main

import "github.com/zaynchat/zaynchat-cli/cmd"

func main() {
	cmd.Execute()
}
