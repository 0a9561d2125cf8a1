package gba

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"gbacore/gba/log"
)

// Config is the on-disk configuration for a run of the core, loaded from
// and saved to the user's config directory as TOML.
type Config struct {
	General GeneralConfig `toml:"general"`
	Video   VideoConfig   `toml:"video"`
}

type GeneralConfig struct {
	BiosPath   string `toml:"bios_path"`
	SavePath   string `toml:"save_path"`
	SkipBIOS   bool   `toml:"skip_bios_intro"`
}

type VideoConfig struct {
	DisablePrefetchDefault bool `toml:"disable_prefetch_default"`
}

// ConfigDir is the platform-specific directory this core's configuration
// and default save files live in, resolved and created when the package
// is initialized.
var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("gbacore")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create config directory %s: %v", dir, err)
	}
	return dir
})()

const configFilename = "config.toml"

// LoadConfigOrDefault loads config.toml from ConfigDir, or returns a
// zero-value Config if it doesn't exist or fails to parse.
func LoadConfigOrDefault() Config {
	var cfg Config
	if _, err := toml.DecodeFile(filepath.Join(ConfigDir, configFilename), &cfg); err != nil {
		log.ModEmu.DebugZ("no usable config file, using defaults").End()
		return Config{}
	}
	return cfg
}

func SaveConfig(cfg Config) error {
	f, err := os.Create(filepath.Join(ConfigDir, configFilename))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
