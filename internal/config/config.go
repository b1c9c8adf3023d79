// Package config handles tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/bullyae-tools/internal/logger"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Export formats understood by the extract command.
const (
	ExportPNG = "png"
	ExportDDS = "dds"
)

// Config holds all tool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Convert ConvertConfig `yaml:"convert"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Export  ExportConfig  `yaml:"export"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ConvertConfig holds settings for rebuilding texture containers.
type ConvertConfig struct {
	Compress bool `yaml:"compress"` // zlib the payload even without -c
	Level    int  `yaml:"level"`    // zlib level, -2..9
}

// MeshConfig holds sidecar resolution settings for mesh decoding.
type MeshConfig struct {
	CacheTextures bool     `yaml:"cache_textures"`
	TextureExt    string   `yaml:"texture_ext"`
	MaterialExt   string   `yaml:"material_ext"`
	SearchPaths   []string `yaml:"search_paths,omitempty"` // extra sidecar directories
}

// ExportConfig holds settings for extracted images.
type ExportConfig struct {
	Format string `yaml:"format"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Convert: ConvertConfig{
			Compress: false,
			Level:    9,
		},
		Mesh: MeshConfig{
			CacheTextures: true,
			TextureExt:    ".tex",
			MaterialExt:   ".mtl",
		},
		Export: ExportConfig{
			Format: ExportPNG,
		},
	}
}

// Validate checks value ranges after all sources are merged.
func (c *Config) Validate() error {
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q (want one of %s)",
			ErrInvalidConfig, c.Logging.Level, strings.Join(logger.Levels, ", "))
	}
	if c.Convert.Level < -2 || c.Convert.Level > 9 {
		return fmt.Errorf("%w: convert.level %d out of range -2..9", ErrInvalidConfig, c.Convert.Level)
	}
	for name, ext := range map[string]string{
		"mesh.texture_ext":  c.Mesh.TextureExt,
		"mesh.material_ext": c.Mesh.MaterialExt,
	} {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("%w: %s %q must look like .ext", ErrInvalidConfig, name, ext)
		}
	}
	switch strings.ToLower(c.Export.Format) {
	case ExportPNG, ExportDDS:
	default:
		return fmt.Errorf("%w: export.format %q", ErrInvalidConfig, c.Export.Format)
	}
	return nil
}
