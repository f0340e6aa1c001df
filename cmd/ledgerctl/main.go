package main

import "github.com/SscSPs/credit_ledger/internal/cli"

func main() {
	cli.Execute()
}
