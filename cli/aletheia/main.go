package main

import (
	"os"

	"github.com/joho/godotenv"

	aletheiacmder "github.com/papercomputeco/aletheia/cmd/aletheia"
)

func main() {
	// A missing .env is fine; ALETHEIA_* may come from the real environment.
	_ = godotenv.Load()

	cmd := aletheiacmder.NewAletheiaCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
