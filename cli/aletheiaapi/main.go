package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	servecmder "github.com/papercomputeco/aletheia/cmd/aletheia/serve"
)

func main() {
	_ = godotenv.Load()

	cmd := servecmder.NewServeCmd()
	cmd.Use = "aletheiaapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .aletheia config directory")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
