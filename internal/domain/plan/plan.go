// Where: cli/internal/domain/plan/plan.go
// What: Deployment plan data model.
// Why: Carry sizing decisions from the synthesizer to generation and deploy.
package plan

import "github.com/poruru/autodeploy/cli/internal/domain/stack"

const (
	DefaultPort                 = 8080
	DefaultTargetCPUUtilization = 60
	ComputeServiceCloudRun      = "cloud_run"
	DefaultRegion               = "us-central1"
)

// ServiceSpec sizes one deployable service.
type ServiceSpec struct {
	Name         string `json:"name" yaml:"name"`
	SourcePath   string `json:"source_path" yaml:"source_path"`
	CPU          string `json:"cpu" yaml:"cpu"`
	Memory       string `json:"memory" yaml:"memory"`
	MaxInstances int    `json:"max_instances" yaml:"max_instances"`
	MinInstances int    `json:"min_instances" yaml:"min_instances"`
	Port         int    `json:"port" yaml:"port"`
}

type DatabaseSpec struct {
	Kind             stack.DatabaseKind `json:"type" yaml:"type"`
	Tier             string             `json:"tier" yaml:"tier"`
	BackupEnabled    bool               `json:"backup_enabled" yaml:"backup_enabled"`
	HighAvailability bool               `json:"high_availability" yaml:"high_availability"`
}

type InfraSpec struct {
	CloudProvider  string `json:"cloud_provider" yaml:"cloud_provider"`
	ComputeService string `json:"compute_service" yaml:"compute_service"`
	Region         string `json:"region" yaml:"region"`
	ServiceCount   int    `json:"service_count" yaml:"service_count"`
}

type MonitoringSpec struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Alerts  bool     `json:"alerts" yaml:"alerts"`
	Logging bool     `json:"logging" yaml:"logging"`
	Metrics []string `json:"metrics" yaml:"metrics"`
}

type ScalingSpec struct {
	AutoScaling          bool `json:"auto_scaling" yaml:"auto_scaling"`
	MinInstances         int  `json:"min_instances" yaml:"min_instances"`
	MaxInstances         int  `json:"max_instances" yaml:"max_instances"`
	TargetCPUUtilization int  `json:"target_cpu_utilization" yaml:"target_cpu_utilization"`
}

// Plan is the full deployment decision for one repository.
type Plan struct {
	Strategy       string         `json:"strategy" yaml:"strategy"`
	Budget         float64        `json:"budget" yaml:"budget"`
	Services       []ServiceSpec  `json:"services" yaml:"services"`
	Database       DatabaseSpec   `json:"database" yaml:"database"`
	Infrastructure InfraSpec      `json:"infrastructure" yaml:"infrastructure"`
	Monitoring     MonitoringSpec `json:"monitoring" yaml:"monitoring"`
	Scaling        ScalingSpec    `json:"scaling" yaml:"scaling"`
}

// WithRegion returns a copy of the plan targeting region. Empty regions are ignored.
func (p Plan) WithRegion(region string) Plan {
	if region == "" {
		return p
	}
	out := p.clone()
	out.Infrastructure.Region = region
	return out
}

// ServiceNames lists service names in plan order.
func (p Plan) ServiceNames() []string {
	names := make([]string, 0, len(p.Services))
	for _, svc := range p.Services {
		names = append(names, svc.Name)
	}
	return names
}

func (p Plan) clone() Plan {
	out := p
	out.Services = append([]ServiceSpec(nil), p.Services...)
	out.Monitoring.Metrics = append([]string(nil), p.Monitoring.Metrics...)
	return out
}
