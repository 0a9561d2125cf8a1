package cart

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewROMMirrorsToNextPowerOfTwo(t *testing.T) {
	buf := make([]byte, 3*1024*1024) // 3MB, not a power of two
	for i := range buf {
		buf[i] = byte(i)
	}
	rom := NewROM(buf)

	if len(rom.Data) != 4*1024*1024 {
		t.Fatalf("mirrored size = %d, want 4MB", len(rom.Data))
	}
	if rom.Size != len(buf) {
		t.Fatalf("Size = %d, want %d", rom.Size, len(buf))
	}
	// The mirror repeats the original image starting right after it ends.
	if rom.Data[len(buf)] != buf[0] {
		t.Fatalf("mirror boundary byte = %#x, want %#x", rom.Data[len(buf)], buf[0])
	}
}

func TestROMExactPowerOfTwoIsNotPadded(t *testing.T) {
	buf := make([]byte, 1024*1024)
	rom := NewROM(buf)
	if len(rom.Data) != len(buf) {
		t.Fatalf("Data length = %d, want %d (no mirroring needed)", len(rom.Data), len(buf))
	}
}

func TestROMReadWrapsAtMask(t *testing.T) {
	buf := make([]byte, 256*1024)
	buf[0] = 0xAB
	rom := NewROM(buf)
	if got := rom.Read8(rom.Mask() + 1); got != 0xAB {
		t.Fatalf("Read8 past mask = %#x, want wrap to 0xAB", got)
	}
}

func TestDetectBackupKindPrefersLongerFlashSignature(t *testing.T) {
	rom := append([]byte("some header padding"), []byte("FLASH1M_V100")...)
	if kind := DetectBackupKind(rom); kind != BackupFlash1M {
		t.Fatalf("kind = %v, want FLASH1M", kind)
	}
}

func TestDetectBackupKindNone(t *testing.T) {
	rom := []byte("no signature present in this rom at all")
	if kind := DetectBackupKind(rom); kind != BackupNone {
		t.Fatalf("kind = %v, want none", kind)
	}
}

func TestBackupDefaultsToErased(t *testing.T) {
	b := NewBackup(BackupSRAM)
	for i, v := range b.Data {
		if v != 0xFF {
			t.Fatalf("byte %d = %#x, want 0xFF", i, v)
		}
	}
}

func TestBackupFlushOnlyWritesWhenDirty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.sav")

	b := NewBackup(BackupSRAM)
	if err := b.Flush(path); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Flush wrote a file despite no dirty writes")
	}

	b.Data[10] = 0x42
	b.MarkDirty()
	if err := b.Flush(path); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if b.Dirty() {
		t.Fatal("Flush should clear the dirty flag")
	}

	loaded, err := LoadBackup(path, BackupSRAM)
	if err != nil {
		t.Fatalf("LoadBackup: %v", err)
	}
	if loaded.Data[10] != 0x42 {
		t.Fatalf("loaded byte = %#x, want 0x42", loaded.Data[10])
	}
}

func TestLoadBackupMissingFileYieldsErased(t *testing.T) {
	dir := t.TempDir()
	b, err := LoadBackup(filepath.Join(dir, "missing.sav"), BackupFlash512)
	if err != nil {
		t.Fatalf("LoadBackup: %v", err)
	}
	if len(b.Data) != BackupFlash512.Size() {
		t.Fatalf("Data length = %d, want %d", len(b.Data), BackupFlash512.Size())
	}
	if b.Data[0] != 0xFF {
		t.Fatalf("Data[0] = %#x, want 0xFF", b.Data[0])
	}
}
