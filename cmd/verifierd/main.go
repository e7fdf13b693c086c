package main

import (
	"log"

	verifier "sponsornet/services/verifierd"
)

func main() {
	if err := verifier.Main(); err != nil {
		log.Fatalf("verifierd: %v", err)
	}
}
