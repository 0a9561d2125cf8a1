package main

import "os"

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case romInfoMode:
		romInfoMain(cfg.RomInfo)
	case versionMode:
		versionMain()
	default:
		runMain(cfg.Run)
	}
}
