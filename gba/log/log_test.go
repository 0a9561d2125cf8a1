package log

import "testing"

func TestModuleEnabled(t *testing.T) {
	DisableDebugModules(ModuleMaskAll)

	if !ModDMA.Enabled(WarnLevel) {
		t.Fatal("warn level must always be enabled")
	}
	if ModDMA.Enabled(DebugLevel) {
		t.Fatal("debug level must be gated by the module mask")
	}

	EnableDebugModules(ModDMA.Mask())
	if !ModDMA.Enabled(DebugLevel) {
		t.Fatal("debug level should be enabled after EnableDebugModules")
	}
	DisableDebugModules(ModDMA.Mask())
}

func TestEntryZNilChainDoesNotPanic(t *testing.T) {
	DisableDebugModules(ModuleMaskAll)

	// ModDMA debug is disabled: DebugZ returns nil, and every chained call
	// on the nil *EntryZ must be a safe no-op.
	ModDMA.DebugZ("this should never be built").
		String("k", "v").
		Hex16("addr", 0x1234).
		Bool("flag", true).
		End()
}

func TestModuleByName(t *testing.T) {
	m, ok := ModuleByName("dma")
	if !ok || m != ModDMA {
		t.Fatalf("expected to find dma module, got %v %v", m, ok)
	}
	if _, ok := ModuleByName("nonexistent"); ok {
		t.Fatal("expected lookup miss")
	}
}
