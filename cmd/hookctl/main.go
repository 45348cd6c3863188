package main

import (
	"log"

	"github.com/dineflow/hookbridge/cmd/hookctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
