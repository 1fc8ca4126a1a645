// Where: cli/internal/infra/config/config.go
// What: Runtime configuration resolved from file, environment and defaults.
// Why: One typed Config drives every pipeline collaborator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poruru/autodeploy/cli/internal/meta"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when the config document fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	GCP       GCPConfig       `mapstructure:"gcp"`
	Deploy    DeployConfig    `mapstructure:"deploy"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	State     StateConfig     `mapstructure:"state"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// GCPConfig identifies the target project.
type GCPConfig struct {
	Project         string `mapstructure:"project"`
	Region          string `mapstructure:"region"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// DeployConfig holds pipeline inputs that can also come from flags.
type DeployConfig struct {
	Prefix      string  `mapstructure:"prefix"`
	Strategy    string  `mapstructure:"strategy"`
	Budget      float64 `mapstructure:"budget"`
	Mode        string  `mapstructure:"mode"`
	Builder     string  `mapstructure:"builder"`
	AutoApprove bool    `mapstructure:"auto_approve"`
}

// WorkspaceConfig locates clones and the provisioning working directory.
type WorkspaceConfig struct {
	Root         string `mapstructure:"root"`
	TerraformDir string `mapstructure:"terraform_dir"`
}

// MemoryConfig selects the deployment memory store.
type MemoryConfig struct {
	Backend  string `mapstructure:"backend"` // "file" or "s3"
	Path     string `mapstructure:"path"`
	Bucket   string `mapstructure:"bucket"`
	Key      string `mapstructure:"key"`
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
}

// StateConfig selects where the provisioning engine keeps its state.
type StateConfig struct {
	Backend   string `mapstructure:"backend"` // "local" or "s3"
	Bucket    string `mapstructure:"bucket"`
	Key       string `mapstructure:"key"`
	LockTable string `mapstructure:"lock_table"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
}

// AdvisorConfig configures the optional advice provider.
type AdvisorConfig struct {
	Provider string        `mapstructure:"provider"` // "none" or "ollama"
	URL      string        `mapstructure:"url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the textfile path; empty disables the flush.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// DefaultPath returns <dir>/.autodeploy/config.yaml.
func DefaultPath(dir string) string {
	return filepath.Join(dir, meta.HomeDir, meta.ConfigFile)
}

// Load reads configuration from path (optional), then environment.
// A missing file is not an error unless required is set.
func Load(path string, required bool) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := ValidateDocument(content); err != nil {
				return Config{}, fmt.Errorf("validate %s: %w", path, err)
			}
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(meta.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	applyFallbacks(&cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gcp.project", "")
	v.SetDefault("gcp.region", meta.DefaultRegion)
	v.SetDefault("gcp.credentials_file", "")
	v.SetDefault("deploy.prefix", "")
	v.SetDefault("deploy.strategy", meta.DefaultStrategy)
	v.SetDefault("deploy.budget", meta.DefaultBudget)
	v.SetDefault("deploy.mode", "simulation")
	v.SetDefault("deploy.builder", "cloudbuild")
	v.SetDefault("deploy.auto_approve", false)
	v.SetDefault("workspace.root", meta.WorkspaceRoot)
	v.SetDefault("workspace.terraform_dir", meta.TerraformDir)
	v.SetDefault("memory.backend", "file")
	v.SetDefault("memory.path", meta.DefaultMemoryPath)
	v.SetDefault("memory.bucket", "")
	v.SetDefault("memory.key", meta.DefaultMemoryPath)
	v.SetDefault("memory.endpoint", "")
	v.SetDefault("memory.region", "us-east-1")
	v.SetDefault("state.backend", "local")
	v.SetDefault("state.bucket", "")
	v.SetDefault("state.key", "autodeploy/terraform.tfstate")
	v.SetDefault("state.lock_table", "")
	v.SetDefault("state.endpoint", "")
	v.SetDefault("state.region", "us-east-1")
	v.SetDefault("advisor.provider", "none")
	v.SetDefault("advisor.url", meta.DefaultAdvisorURL)
	v.SetDefault("advisor.model", meta.DefaultAdvisorName)
	v.SetDefault("advisor.timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.file", "")
}

// applyFallbacks honours the conventional Google environment variables.
func applyFallbacks(cfg *Config) {
	if cfg.GCP.Project == "" {
		cfg.GCP.Project = strings.TrimSpace(os.Getenv("GCP_PROJECT_ID"))
	}
	if cfg.GCP.CredentialsFile == "" {
		cfg.GCP.CredentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
}

// RemoteState reports whether a remote state backend is configured.
func (c Config) RemoteState() bool {
	return c.State.Backend == "s3" && c.State.Bucket != ""
}
