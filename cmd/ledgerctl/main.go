package main

import (
	"os"
	_ "time/tzdata"

	"github.com/mamadbah2/driverledger/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
