package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdpp/internal/config"
	"github.com/alnah/go-mdpp/internal/security"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string
}

// DefaultEnv returns the process environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
	}
}

// envPrefix marks the variables read by mdpp.
const envPrefix = "MDPP_"

// envConfig holds overrides from MDPP_* environment variables. They fill
// config values left empty; flags still win.
type envConfig struct {
	ConfigPath string // MDPP_CONFIG
	Format     string // MDPP_FORMAT
	InputDir   string // MDPP_INPUT_DIR
	OutputDir  string // MDPP_OUTPUT_DIR
	AssetPath  string // MDPP_ASSET_PATH
	Security   string // MDPP_SECURITY
	KrokiURL   string // MDPP_KROKI_URL
	Workers    int    // MDPP_WORKERS
}

// knownEnvVars lists valid MDPP_* variables, used to flag typos.
var knownEnvVars = map[string]bool{
	"MDPP_CONFIG":     true,
	"MDPP_FORMAT":     true,
	"MDPP_INPUT_DIR":  true,
	"MDPP_OUTPUT_DIR": true,
	"MDPP_ASSET_PATH": true,
	"MDPP_SECURITY":   true,
	"MDPP_KROKI_URL":  true,
	"MDPP_WORKERS":    true,
}

// loadEnvConfig reads the MDPP_* variables. An unparsable MDPP_WORKERS
// is ignored.
func loadEnvConfig(env *Environment) *envConfig {
	ec := &envConfig{
		ConfigPath: env.Getenv("MDPP_CONFIG"),
		Format:     env.Getenv("MDPP_FORMAT"),
		InputDir:   env.Getenv("MDPP_INPUT_DIR"),
		OutputDir:  env.Getenv("MDPP_OUTPUT_DIR"),
		AssetPath:  env.Getenv("MDPP_ASSET_PATH"),
		Security:   env.Getenv("MDPP_SECURITY"),
		KrokiURL:   env.Getenv("MDPP_KROKI_URL"),
	}
	if v := env.Getenv("MDPP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			ec.Workers = n
		}
	}
	return ec
}

// warnUnknownEnvVars reports MDPP_* variables mdpp does not read.
func warnUnknownEnvVars(env *Environment) {
	var unknown []string
	for _, kv := range env.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, envPrefix) && !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(env.Stderr, "warning: unknown environment variable %s\n", name)
	}
}

// applyEnvConfig fills empty config values from the environment.
// MDPP_SECURITY replaces the profile since the config always has one.
func applyEnvConfig(ec *envConfig, cfg *config.Config) {
	if ec.Format != "" && cfg.Format == "" {
		cfg.Format = ec.Format
	}
	if ec.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = ec.InputDir
	}
	if ec.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = ec.OutputDir
	}
	if ec.AssetPath != "" && cfg.Assets.BasePath == "" {
		cfg.Assets.BasePath = ec.AssetPath
	}
	if ec.Security != "" {
		cfg.Security.Profile = security.Profile(ec.Security)
	}
	if ec.KrokiURL != "" && cfg.Render.KrokiURL == "" {
		cfg.Render.KrokiURL = ec.KrokiURL
	}
}
