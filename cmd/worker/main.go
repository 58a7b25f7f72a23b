package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <audit|seed <yamlPath>>")
	}

	switch os.Args[1] {
	case "audit":
		RunAudit(os.Args[2:])
	case "seed":
		RunSeed(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
