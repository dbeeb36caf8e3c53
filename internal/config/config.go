package config

// #region imports
import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kincholabs/daf-controller/internal/alloc"
)

// #endregion

// #region types

// Config is the full runtime configuration. Every field has a working
// default; a YAML file and environment variables override in that order.
type Config struct {
	DBPath            string `yaml:"db_path"`
	ListenAddr        string `yaml:"listen_addr"`
	QuestionnairePath string `yaml:"questionnaire_path"`

	Chat      ChatConfig      `yaml:"chat"`
	Fund      FundConfig      `yaml:"fund"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Profile   ProfileConfig   `yaml:"profile"`
}

// ChatConfig configures the generative chat collaborator.
type ChatConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// FundConfig is the fund snapshot used when no live feed is wired.
type FundConfig struct {
	TotalAUM           int64   `yaml:"total_aum"`
	CurrentHF          float32 `yaml:"current_hf"`
	LiquidityAvailable int64   `yaml:"liquidity_available"`
}

// ConsensusConfig tunes the consensus coordinator.
type ConsensusConfig struct {
	MinApproveConfidence float32 `yaml:"min_approve_confidence"`
}

// ProfileConfig tunes the archetype inference engine.
type ProfileConfig struct {
	BaselineCauses int `yaml:"baseline_causes"`
}

// #endregion

// #region defaults

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:     "daf_controller.db",
		ListenAddr: ":8080",
		Chat: ChatConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "llama3.2",
			TimeoutSeconds: 20,
		},
		Fund: FundConfig{
			TotalAUM:           1_000_000,
			CurrentHF:          3.0,
			LiquidityAvailable: 500_000,
		},
		Consensus: ConsensusConfig{
			MinApproveConfidence: 0.70,
		},
		Profile: ProfileConfig{
			BaselineCauses: 2,
		},
	}
}

// #endregion

// #region load

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or the file is absent), then environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DBPath = envOr("DAF_DB", cfg.DBPath)
	cfg.ListenAddr = envOr("DAF_LISTEN_ADDR", cfg.ListenAddr)
	cfg.QuestionnairePath = envOr("DAF_QUESTIONNAIRE", cfg.QuestionnairePath)
	cfg.Chat.BaseURL = envOr("CHAT_BASE_URL", cfg.Chat.BaseURL)
	cfg.Chat.Model = envOr("CHAT_MODEL", cfg.Chat.Model)
	if v := os.Getenv("CHAT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Chat.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CONSENSUS_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Consensus.MinApproveConfidence = float32(f)
		}
	}
}

func (c Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	if c.Fund.TotalAUM < 0 || c.Fund.LiquidityAvailable < 0 {
		return fmt.Errorf("config: fund amounts must not be negative")
	}
	if c.Consensus.MinApproveConfidence < 0 || c.Consensus.MinApproveConfidence > 1 {
		return fmt.Errorf("config: min_approve_confidence must be in [0,1]")
	}
	return nil
}

// #endregion

// #region helpers

// FundState converts the static fund configuration into the evaluator
// snapshot type.
func (c Config) FundState() alloc.FundState {
	return alloc.FundState{
		TotalAUM:           c.Fund.TotalAUM,
		CurrentHF:          c.Fund.CurrentHF,
		LiquidityAvailable: c.Fund.LiquidityAvailable,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion
