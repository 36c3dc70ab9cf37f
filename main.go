package main

import (
	"github.com/leoprim/ranked-tracker-web/cmd"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

var version = "1.0.0"

func main() {
	if err := cmd.Execute(version); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}
