package main

import "github.com/atikulmunna/iisfilter/internal/cmd"

func main() {
	cmd.Execute()
}
