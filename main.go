package main

import "github.com/KaramelBytes/skatelens-cli/cmd"

func main() {
	cmd.Execute()
}
