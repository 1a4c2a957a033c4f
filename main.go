package main

import "github.com/unfoldingWord-dev/uwcatalog/cmd"

func main() {
	cmd.Execute()
}
