package main

import "github.com/atikulmunna/sift/internal/cmd"

func main() {
	cmd.Execute()
}
