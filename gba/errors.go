package gba

import "gbacore/gba/cart"

// Re-exported so callers of this package's public API don't need to
// import gba/cart directly just to spell the backup-chip enum.
type BackupKind = cart.BackupKind

const (
	BackupNone     = cart.BackupNone
	BackupEEPROM   = cart.BackupEEPROM
	BackupSRAM     = cart.BackupSRAM
	BackupFlash512 = cart.BackupFlash512
	BackupFlash1M  = cart.BackupFlash1M
)
