package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configEnvVar = "SEJSCRIPT_CONFIG"

const configFileName = ".sejscript.yaml"

//
// Interpreter settings.  Everything defaults to off, so running
// without a config file gives plain script output and nothing else
//

type config struct {
	TraceExec       bool   `yaml:"trace_exec"`
	TraceVars       bool   `yaml:"trace_vars"`
	TraceDump       bool   `yaml:"trace_dump"`
	Stats           bool   `yaml:"stats"`
	ContinueOnError bool   `yaml:"continue_on_error"`
	MaxInlineDepth  int    `yaml:"max_inline_depth"`
	InputPrompt     string `yaml:"input_prompt"`
}

func defaultConfig() config {

	return config{
		MaxInlineDepth: defaultMaxInlineDepth,
		InputPrompt:    defaultInputPrompt,
	}
}

func configPath() string {

	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, configFileName)
}

//
// Load the config file, if there is one.  A missing file is fine; one
// that exists but does not parse is not
//

func loadConfig(path string) (config, error) {

	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.MaxInlineDepth <= 0 {
		cfg.MaxInlineDepth = defaultMaxInlineDepth
	}

	return cfg, nil
}
