package llmconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigJSON(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config.json: %v", err)
	}
}

func TestLoadDefaultsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultModel != "" {
		t.Errorf("expected empty default model, got %q", cfg.DefaultModel)
	}
	if cfg.CommandModeFor("shell") != CommandOn {
		t.Errorf("unconfigured command should default to ON, got %q", cfg.CommandModeFor("shell"))
	}
}

func TestLoadParsesJSONConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigJSON(t, dir, `{
		"default_model": "anthropic:claude-sonnet-4-6",
		"providers": {
			"anthropic": {"api_key": "sk-test", "model": "claude-sonnet-4-6"}
		},
		"mcp": {
			"chat_servers": {
				"filesystem": {"command": "npx", "args": ["-y", "mcp-filesystem"]}
			}
		},
		"commands": {
			"shell": "AGENT_ONLY",
			"exit": "OFF"
		}
	}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultModel != "anthropic:claude-sonnet-4-6" {
		t.Errorf("got default model %q", cfg.DefaultModel)
	}
	if cfg.Providers["anthropic"].APIKey != "sk-test" {
		t.Errorf("got api key %q", cfg.Providers["anthropic"].APIKey)
	}
	server, ok := cfg.MCP.ChatServers["filesystem"]
	if !ok {
		t.Fatal("expected filesystem chat server")
	}
	if server.Command != "npx" || len(server.Args) != 2 {
		t.Errorf("got server %+v", server)
	}
	if cfg.CommandModeFor("shell") != CommandAgentOnly {
		t.Errorf("got shell mode %q", cfg.CommandModeFor("shell"))
	}
	if cfg.CommandModeFor("exit") != CommandOff {
		t.Errorf("got exit mode %q", cfg.CommandModeFor("exit"))
	}
	if cfg.CommandModeFor("undeclared") != CommandOn {
		t.Errorf("undeclared command should default to ON")
	}
}

func TestLoadFallsBackToLegacyINI(t *testing.T) {
	dir := t.TempDir()
	body := "default_model = openai:gpt-5.2\n\n[providers.openai]\napi_key = sk-legacy\n"
	if err := os.WriteFile(filepath.Join(dir, "config.ini"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config.ini: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultModel != "openai:gpt-5.2" {
		t.Errorf("got default model %q", cfg.DefaultModel)
	}
}

func TestActiveProviderSplitsProviderModel(t *testing.T) {
	cfg := &Config{
		DefaultModel: "anthropic:claude-sonnet-4-6",
		Providers: map[string]ProviderConfig{
			"anthropic": {APIKey: "sk-test"},
		},
	}
	name, providerCfg, ok := cfg.ActiveProvider()
	if !ok {
		t.Fatal("expected active provider to resolve")
	}
	if name != "anthropic" {
		t.Errorf("got provider name %q", name)
	}
	if providerCfg.APIKey != "sk-test" {
		t.Errorf("got api key %q", providerCfg.APIKey)
	}
}

func TestActiveProviderMissingReturnsFalse(t *testing.T) {
	cfg := &Config{DefaultModel: "unknown:model"}
	_, _, ok := cfg.ActiveProvider()
	if ok {
		t.Fatal("expected ActiveProvider to report not-ok for an unconfigured provider")
	}
}

func TestParseProviderModel(t *testing.T) {
	cases := []struct {
		in       string
		provider string
		model    string
	}{
		{"anthropic:claude-sonnet-4-6", "anthropic", "claude-sonnet-4-6"},
		{"anthropic", "anthropic", ""},
		{"  openai : gpt-5.2 ", "openai", "gpt-5.2"},
	}
	for _, c := range cases {
		provider, model := ParseProviderModel(c.in)
		if provider != c.provider || model != c.model {
			t.Errorf("ParseProviderModel(%q) = (%q, %q), want (%q, %q)", c.in, provider, model, c.provider, c.model)
		}
	}
}
