// Where: cli/internal/domain/deployment/result.go
// What: Result types shared by the pipeline stages.
// Why: Stages return structured results; failures never escape as raw errors.
package deployment

// ServiceStatus is the outcome of one service deployment.
type ServiceStatus string

const (
	StatusDeployed ServiceStatus = "deployed"
	StatusFailed   ServiceStatus = "failed"
)

// Mode selects between a simulated and a real deployment.
type Mode string

const (
	ModeSimulation Mode = "simulation"
	ModeReal       Mode = "real"
)

// Intent captures what the operator asked for.
type Intent struct {
	RepositoryURL string  `json:"repository_url" yaml:"repository_url"`
	Prefix        string  `json:"prefix" yaml:"prefix"`
	Region        string  `json:"region,omitempty" yaml:"region,omitempty"`
	Strategy      string  `json:"strategy" yaml:"strategy"`
	Budget        float64 `json:"budget" yaml:"budget"`
	Mode          Mode    `json:"mode" yaml:"mode"`
}

// ServiceRecord is the per-service deployment outcome.
type ServiceRecord struct {
	Name     string        `json:"name" yaml:"name"`
	Status   ServiceStatus `json:"status" yaml:"status"`
	Endpoint string        `json:"url,omitempty" yaml:"url,omitempty"`
	Image    string        `json:"image,omitempty" yaml:"image,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// ProvisioningResult is what the provisioning controller reports.
type ProvisioningResult struct {
	Success            bool              `json:"success"`
	DatabaseConnection string            `json:"database_connection"`
	DatabasePrivateIP  string            `json:"database_private_ip,omitempty"`
	ServiceURLs        map[string]string `json:"service_urls"`
	Suffix             string            `json:"random_suffix"`
	RegistryURL        string            `json:"artifact_registry_url,omitempty"`
	Error              string            `json:"error,omitempty"`
}

// MonitoringResult reports the best-effort monitoring setup.
type MonitoringResult struct {
	Enabled           bool   `json:"enabled" yaml:"enabled"`
	Alerts            bool   `json:"alerts,omitempty" yaml:"alerts,omitempty"`
	Logging           bool   `json:"logging,omitempty" yaml:"logging,omitempty"`
	ServicesMonitored int    `json:"services_monitored,omitempty" yaml:"services_monitored,omitempty"`
	Error             string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DatabaseInfo is the connection information surfaced to the operator.
type DatabaseInfo struct {
	Connection string `json:"connection,omitempty" yaml:"connection,omitempty"`
	PrivateIP  string `json:"private_ip,omitempty" yaml:"private_ip,omitempty"`
}

// Result is the aggregated outcome of one pipeline run.
type Result struct {
	Success      bool             `json:"success" yaml:"success"`
	DeploymentID string           `json:"deployment_id,omitempty" yaml:"deployment_id,omitempty"`
	Mode         Mode             `json:"mode,omitempty" yaml:"mode,omitempty"`
	Suffix       string           `json:"random_suffix,omitempty" yaml:"random_suffix,omitempty"`
	Services     []ServiceRecord  `json:"services" yaml:"services"`
	Database     DatabaseInfo     `json:"database" yaml:"database"`
	CostEstimate float64          `json:"cost_estimate" yaml:"cost_estimate"`
	Monitoring   MonitoringResult `json:"monitoring" yaml:"monitoring"`
	Message      string           `json:"message,omitempty" yaml:"message,omitempty"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	Code         string           `json:"code,omitempty" yaml:"code,omitempty"`
	Suggestion   string           `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Warnings     []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FailedServices returns the records with StatusFailed.
func (r Result) FailedServices() []ServiceRecord {
	var failed []ServiceRecord
	for _, s := range r.Services {
		if s.Status == StatusFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// Partial reports whether some, but not all, services failed.
func (r Result) Partial() bool {
	failed := len(r.FailedServices())
	return failed > 0 && failed < len(r.Services)
}
