package main

import "github.com/specterhq/specter-scan/cmd"

func main() {
	cmd.Execute()
}
