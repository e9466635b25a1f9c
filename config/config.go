package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "PREDICT_CONFIG"

const defaultFileName = "predict.yaml"

type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
}

// ModelConfig drives artifact resolution. ProjectRoot anchors RelativePath
// and defaults to the working directory. BundleEnv names the variable the
// packager sets to its resource directory, where ArtifactName is looked up.
type ModelConfig struct {
	ProjectRoot  string `yaml:"project_root"`
	RelativePath string `yaml:"relative_path"`
	BundleEnv    string `yaml:"bundle_env"`
	ArtifactName string `yaml:"artifact_name"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

func Default() *Config {
	return &Config{
		Model: ModelConfig{
			RelativePath: filepath.Join("model", "core_model.pkl"),
			BundleEnv:    "PREDICT_BUNDLE_DIR",
			ArtifactName: "core_model.pkl",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Locate returns the config file to read: $PREDICT_CONFIG, then
// predict.yaml in the working directory, then ../predict.yaml.
func Locate() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	if _, err := os.Stat(defaultFileName); err == nil {
		return defaultFileName
	}
	parent := filepath.Join("..", defaultFileName)
	if _, err := os.Stat(parent); err == nil {
		return parent
	}
	return defaultFileName
}

// Load decodes path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return Default(), err
	}
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Model.RelativePath == "" {
		c.Model.RelativePath = def.Model.RelativePath
	}
	if c.Model.BundleEnv == "" {
		c.Model.BundleEnv = def.Model.BundleEnv
	}
	if c.Model.ArtifactName == "" {
		c.Model.ArtifactName = def.Model.ArtifactName
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
}
