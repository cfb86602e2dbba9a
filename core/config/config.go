package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	// ConfigurationName is the name of the config file in the config dir.
	ConfigurationName = "config.yaml"

	// DefaultDirName is the config directory created under $HOME.
	DefaultDirName = ".mish"
)

// Configuration holds the shell's settings, loaded from a yaml file in
// the config directory.
type Configuration struct {
	configFs afero.Fs
	dir      string

	// Motd is printed once when an interactive session starts.
	Motd string `json:"motd"`

	// Prompt is a PS1-style template; \u, \h, \w and \$ are expanded.
	Prompt string `json:"prompt" validate:"required"`

	// HistoryFile is the name of the persistent history file within the
	// config directory. Empty disables persistent history.
	HistoryFile string `json:"history_file"`

	// Path overrides PATH for the session when non-empty.
	Path string `json:"path"`

	// Env lists extra NAME=value pairs exported at startup.
	Env []string `json:"env"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	if err := validate.Struct(c); err != nil {
		return err
	}

	for _, kv := range c.Env {
		if !strings.Contains(kv, "=") || strings.HasPrefix(kv, "=") {
			return fmt.Errorf("env entry %q is not NAME=value", kv)
		}
	}
	return nil
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// EnsureHistory creates the history file if it is missing so the line
// editor can append to it from the first session on.
func (c *Configuration) EnsureHistory() error {
	if c.HistoryFile == "" {
		return nil
	}
	fd, err := c.fs().OpenFile(c.HistoryFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	return fd.Close()
}

// HistoryPath returns the OS path of the history file, or "" when
// persistent history is disabled.
func (c *Configuration) HistoryPath() string {
	if c.HistoryFile == "" {
		return ""
	}
	return filepath.Join(c.dir, c.HistoryFile)
}

// Default returns the embedded default configuration for running without
// a config directory; persistent history is disabled since there is
// nowhere to keep it.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewMemMapFs()
	out.HistoryFile = ""
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
