package main

import "github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/cli"

func main() {
	cli.Execute()
}
