package main

import "github.com/KaramelBytes/automl-cli/cmd"

func main() {
	cmd.Execute()
}
