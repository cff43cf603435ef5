package main

import (
	"os"

	"github.com/couchcryptid/geocoder-bridge/cmd/geocode/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
