package main

import (
	"log"
	"os"

	"spine_treats/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Printf("[Main] %v", err)
		os.Exit(1)
	}
}
