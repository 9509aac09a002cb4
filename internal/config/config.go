// Package config loads the assistant's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Zero values fall back to the
// defaults applied by Load.
type Config struct {
	// CorpusDir holds the legal corpus (.txt files or .pdf with .txt
	// sidecars) the article index is built from.
	CorpusDir string `yaml:"corpus_dir"`
	// TemplatesDir holds the demand templates, one file per demand type.
	TemplatesDir string `yaml:"templates_dir"`
	// CasesDir holds the case documents the retrieval resolver draws
	// answers from when a model is configured.
	CasesDir string `yaml:"cases_dir"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	Model string `yaml:"model"`

	Credits struct {
		Enforce       bool    `yaml:"enforce"`
		InPerMillion  float64 `yaml:"in_per_million"`
		OutPerMillion float64 `yaml:"out_per_million"`
	} `yaml:"credits"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Tracing struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"tracing"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.CorpusDir = "corpus"
	c.TemplatesDir = "templates"
	c.CasesDir = "casos"
	c.DBPath = "demandas.db"
	c.Credits.InPerMillion = 3.0
	c.Credits.OutPerMillion = 15.0
	c.HTTP.Addr = ":8080"
	return c
}

// Load reads path and merges it over the defaults. A missing file is not an
// error; the defaults come back unchanged.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}
