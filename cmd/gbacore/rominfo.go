package main

import (
	"fmt"

	"gbacore/gba/cart"
)

func romInfoMain(args RomInfo) {
	rom, status, err := cart.LoadROM(args.RomPath)
	checkf(err, "failed to load rom")
	if status != cart.Ok {
		fatalf("rom load failed: %s", status)
	}

	kind := cart.DetectBackupKind(rom.Data[:rom.Size])

	fmt.Printf("path:          %s\n", args.RomPath)
	fmt.Printf("size:          %d bytes\n", rom.Size)
	fmt.Printf("mirrored size: %d bytes\n", len(rom.Data))
	fmt.Printf("backup chip:   %s\n", kind)
	if kind != cart.BackupNone {
		fmt.Printf("backup size:   %d bytes\n", kind.Size())
	}
}
