// Where: cli/internal/domain/plan/synthesize.go
// What: Plan synthesizer (descriptor + strategy -> plan).
// Why: Pure decision logic with no I/O so identical inputs give identical plans.
package plan

import (
	"fmt"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/domain/stack"
)

var monitoredMetrics = []string{"cpu", "memory", "requests", "latency"}

// Synthesize maps a descriptor and strategy profile to a deployment plan.
func Synthesize(desc stack.Descriptor, profile StrategyProfile, budget float64) Plan {
	cpu := CPUFor(profile.Compute)
	memory := MemoryFor(profile.Compute)
	maxInstances := MaxInstancesFor(profile.Scaling)
	minInstances := MinInstancesFor(profile.Scaling)

	services := make([]ServiceSpec, 0, len(desc.Candidates))
	seen := map[string]int{}
	for _, candidate := range desc.Candidates {
		if IsSharedLibrary(candidate.Name) {
			continue
		}
		name := uniqueName(NormalizeServiceName(candidate.Name), seen)
		services = append(services, ServiceSpec{
			Name:         name,
			SourcePath:   candidate.Path,
			CPU:          cpu,
			Memory:       memory,
			MaxInstances: maxInstances,
			MinInstances: minInstances,
			Port:         DefaultPort,
		})
	}

	dbKind := desc.Database
	if dbKind == "" {
		dbKind = stack.DefaultDatabase
	}

	return Plan{
		Strategy: profile.Name,
		Budget:   budget,
		Services: services,
		Database: DatabaseSpec{
			Kind:             dbKind,
			Tier:             profile.DatabaseTier,
			BackupEnabled:    true,
			HighAvailability: profile.Scaling == ScalingAggressive,
		},
		Infrastructure: InfraSpec{
			CloudProvider:  profile.CloudProvider,
			ComputeService: ComputeServiceCloudRun,
			Region:         DefaultRegion,
			ServiceCount:   len(services),
		},
		Monitoring: MonitoringSpec{
			Enabled: true,
			Alerts:  true,
			Logging: true,
			Metrics: append([]string(nil), monitoredMetrics...),
		},
		Scaling: ScalingSpec{
			AutoScaling:          true,
			MinInstances:         minInstances,
			MaxInstances:         maxInstances,
			TargetCPUUtilization: DefaultTargetCPUUtilization,
		},
	}
}

// NormalizeServiceName lowercases and replaces '.' and '_' with '-'.
func NormalizeServiceName(name string) string {
	replacer := strings.NewReplacer(".", "-", "_", "-")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(name)))
}

// IsSharedLibrary reports whether a candidate name signals a library-only role.
func IsSharedLibrary(name string) bool {
	return strings.Contains(strings.ToLower(name), "shared")
}

func uniqueName(name string, seen map[string]int) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	for {
		candidate := fmt.Sprintf("%s-%d", name, seen[name])
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = 1
			return candidate
		}
		seen[name]++
	}
}
