package main

import "github.com/Lewsiafat/TradeGuard/cmd"

func main() {
	cmd.Execute()
}
