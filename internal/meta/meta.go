// Where: cli/internal/meta/meta.go
// What: CLI-local identity and layout constants.
// Why: Keep names shared by config, workspace and output in one place.
package meta

const (
	// Project Identity
	AppName   = "autodeploy"
	EnvPrefix = "AUTODEPLOY"

	// Directory Layout
	HomeDir            = ".autodeploy"
	ConfigFile         = "config.yaml"
	DefaultsFile       = "defaults.yaml"
	WorkspaceRoot      = "tmp/agentic-ai-deployer"
	TerraformDir       = "outputs/terraform"
	DefaultMemoryPath  = "deployment_memory.json"
	DefaultRegion      = "us-central1"
	DefaultStrategy    = "cost_optimized"
	DefaultBudget      = 100.0
	DefaultAdvisorURL  = "http://localhost:11434"
	DefaultAdvisorName = "llama2"
)
