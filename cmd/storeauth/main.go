package main

import (
	"os"

	"github.com/goliatone/go-storeauth/cmd/storeauth/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
