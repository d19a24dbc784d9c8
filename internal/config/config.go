// Package config handles session configuration loading for cairofuzz.
package config

import "gopkg.in/yaml.v3"

// Config is the session configuration the coordinator recognizes (spec §6),
// plus the supplemented max_exec_rate option.
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Session SessionConfig `yaml:"session"`
	Output  OutputConfig  `yaml:"output"`
}

// TargetConfig names the bytecode artifact and entrypoint to fuzz. Artifact
// file parsing itself (ABI/CASM/Sierra deserialization) is an external
// collaborator's concern; this only records the path and the declared
// name the execution adapter resolves at Init.
type TargetConfig struct {
	BytecodePath string `yaml:"bytecode_path"`
	Entrypoint   string `yaml:"entrypoint"`
}

// SessionConfig mirrors the external-interfaces option table of spec §6.
type SessionConfig struct {
	Cores          int     `yaml:"cores"`
	Seed           int64   `yaml:"seed"`
	RunTimeSeconds int     `yaml:"run_time_seconds"`
	Iterations     int64   `yaml:"iterations"`
	Stateful       bool    `yaml:"stateful"`
	Replay         bool    `yaml:"replay"`
	Minimize       bool    `yaml:"minimize"`
	MaxExecRate    float64 `yaml:"max_exec_rate"`
}

// OutputConfig controls corpus/crash seed-file locations and the optional
// stats server.
type OutputConfig struct {
	CorpusFile string `yaml:"corpus_file"`
	CrashFile  string `yaml:"crash_file"`
	ReportAddr string `yaml:"report_addr"`
	Verbose    bool   `yaml:"verbose"`
}

// DefaultConfig returns the default session configuration: one core, no
// caps, no throttling, stateless execution.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Cores:      1,
			Iterations: -1,
		},
		Output: OutputConfig{
			CorpusFile: "corpus.json",
			CrashFile:  "crashes.json",
		},
	}
}

// Load parses a YAML session configuration document, starting from
// DefaultConfig so unset fields keep their defaults.
func Load(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
