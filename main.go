package main

import (
	"os"

	"github.com/podzol/podzol/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
