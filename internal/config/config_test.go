package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.CorpusDir != "corpus" || cfg.CasesDir != "casos" || cfg.DBPath != "demandas.db" || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.Credits.Enforce {
		t.Fatal("enforcement must default off")
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demandas.yaml")
	raw := `
corpus_dir: /var/corpus
model: claude-sonnet-4-20250514
credits:
  enforce: true
  in_per_million: 1.5
http:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CorpusDir != "/var/corpus" || cfg.HTTP.Addr != ":9090" {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if !cfg.Credits.Enforce || cfg.Credits.InPerMillion != 1.5 {
		t.Fatalf("credits: %+v", cfg.Credits)
	}
	// Keys absent from the file keep their defaults.
	if cfg.TemplatesDir != "templates" || cfg.Credits.OutPerMillion != 15.0 {
		t.Fatalf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roto.yaml")
	if err := os.WriteFile(path, []byte("corpus_dir: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
