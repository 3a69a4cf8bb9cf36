package main

import "github.com/timvw/vlm-bench/cmd"

func main() {
	cmd.Execute()
}
