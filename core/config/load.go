package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}
	return loadFrom(afero.NewOsFs(), path)
}

func loadFrom(fs afero.Fs, dir string) (*Configuration, error) {
	contents, err := afero.ReadFile(fs, filepath.Join(dir, ConfigurationName))
	if err != nil {
		return nil, err
	}

	var out Configuration
	if err := yaml.UnmarshalStrict(contents, &out); err != nil {
		return nil, err
	}
	out.configFs = afero.NewBasePathFs(fs, dir)
	out.dir = dir

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Initialize writes the default configuration into the directory,
// creating it if needed. Existing files are left alone so re-running is
// safe. Returns the loaded configuration.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return initializeOn(afero.NewOsFs(), dir, logger)
}

func initializeOn(fs afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	cfgPath := filepath.Join(dir, ConfigurationName)
	switch exists, err := afero.Exists(fs, cfgPath); {
	case err != nil:
		return nil, err
	case exists:
		logger.Printf("Found existing %q, keeping it.", cfgPath)
	default:
		logger.Printf("Creating %q.", cfgPath)
		if err := afero.WriteFile(fs, cfgPath, defaultConfigData, 0644); err != nil {
			return nil, err
		}
	}

	return loadFrom(fs, dir)
}
