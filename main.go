package main

import (
	"log"

	"cryptoTracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("cryptotracker: %v", err)
	}
}
