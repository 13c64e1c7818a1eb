package main

import (
	"os"

	"github.com/spigell/cv-recommender/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
