package main

import "github.com/mselser95/clob-arb/cmd"

func main() {
	cmd.Execute()
}
