// Package config handles tool configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Logging     LoggingConfig    `yaml:"logging"`
	Data        DataConfig       `yaml:"data"`
	Bones       BonesConfig      `yaml:"bones"`
	Validation  ValidationConfig `yaml:"validation"`
	Definitions []string         `yaml:"definitions"` // drawable definition files
}

// DataConfig holds model source settings.
type DataConfig struct {
	GRFPaths    []string `yaml:"grf_paths"`    // archives, later entries take priority
	ModelDirs   []string `yaml:"model_dirs"`   // loose directories, searched before archives
	ModelPrefix string   `yaml:"model_prefix"` // path prefix prepended to model names
	ModelExt    string   `yaml:"model_ext"`    // extension appended to model names
}

// BonesConfig holds bone resolution settings.
type BonesConfig struct {
	// StandardPublic names are resolved for every condition state in
	// addition to the bones a state declares itself.
	StandardPublic []string `yaml:"standard_public"`
	MaxSuffix      int      `yaml:"max_suffix"`   // highest numbered variant probed, e.g. 99
	SuffixWidth    int      `yaml:"suffix_width"` // zero padding of the suffix, e.g. 2 for "01"
}

// ValidationConfig controls load-time and runtime validation.
type ValidationConfig struct {
	// Strict aborts a definition load on the first invariant violation
	// instead of skipping the offending template.
	Strict bool `yaml:"strict"`
	// Simulating enables bone validation. Off, bone caches stay empty,
	// as in an editor or preview context.
	Simulating bool `yaml:"simulating"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Data: DataConfig{
			GRFPaths:    nil,
			ModelDirs:   []string{"."},
			ModelPrefix: "data/model/",
			ModelExt:    ".rsm",
		},
		Bones: BonesConfig{
			StandardPublic: []string{
				"TurretFX",
				"Muzzle",
				"MuzzleFX",
				"Barrel",
				"Recoil",
				"FirePoint",
				"Launch",
				"Wheel",
				"Smoke",
				"Exhaust",
			},
			MaxSuffix:   99,
			SuffixWidth: 2,
		},
		Validation: ValidationConfig{
			Strict:     false,
			Simulating: true,
		},
	}
}
