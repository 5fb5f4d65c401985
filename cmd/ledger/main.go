package main

import "hk-finance-reconciler/cmd/ledger/cmd"

func main() {
	cmd.Execute()
}
