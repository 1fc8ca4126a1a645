// Where: cli/internal/domain/plan/strategy.go
// What: Fixed strategy profile table and tier lookups.
// Why: Keep every sizing decision in one deterministic table.
package plan

import "sort"

// ComputeTier selects per-service CPU and memory.
type ComputeTier string

// ScalingPosture selects instance bounds and availability.
type ScalingPosture string

const (
	ComputeLowest   ComputeTier = "lowest"
	ComputeStandard ComputeTier = "standard"
	ComputeBalanced ComputeTier = "balanced"
	ComputeHigh     ComputeTier = "high"

	ScalingConservative ScalingPosture = "conservative"
	ScalingModerate     ScalingPosture = "moderate"
	ScalingAggressive   ScalingPosture = "aggressive"
)

const (
	StrategyCostOptimized = "cost_optimized"
	StrategyPerformance   = "performance"
	StrategyBalanced      = "balanced"

	// DefaultStrategy is used when a profile name is unknown.
	DefaultStrategy = StrategyCostOptimized
)

// StrategyProfile is a named bundle of tier and scaling choices.
type StrategyProfile struct {
	Name          string         `json:"name" yaml:"name"`
	CloudProvider string         `json:"cloud_provider" yaml:"cloud_provider"`
	Compute       ComputeTier    `json:"compute_tier" yaml:"compute_tier"`
	DatabaseTier  string         `json:"database_tier" yaml:"database_tier"`
	Scaling       ScalingPosture `json:"scaling" yaml:"scaling"`
}

var profiles = map[string]StrategyProfile{
	StrategyCostOptimized: {
		Name:          StrategyCostOptimized,
		CloudProvider: "gcp",
		Compute:       ComputeLowest,
		DatabaseTier:  "db-f1-micro",
		Scaling:       ScalingConservative,
	},
	StrategyPerformance: {
		Name:          StrategyPerformance,
		CloudProvider: "gcp",
		Compute:       ComputeBalanced,
		DatabaseTier:  "db-n1-standard-1",
		Scaling:       ScalingAggressive,
	},
	StrategyBalanced: {
		Name:          StrategyBalanced,
		CloudProvider: "gcp",
		Compute:       ComputeStandard,
		DatabaseTier:  "db-g1-small",
		Scaling:       ScalingModerate,
	},
}

var cpuByTier = map[ComputeTier]string{
	ComputeLowest:   "1",
	ComputeStandard: "2",
	ComputeBalanced: "2",
	ComputeHigh:     "4",
}

var memoryByTier = map[ComputeTier]string{
	ComputeLowest:   "1Gi",
	ComputeStandard: "2Gi",
	ComputeBalanced: "4Gi",
	ComputeHigh:     "8Gi",
}

var maxInstancesByPosture = map[ScalingPosture]int{
	ScalingConservative: 5,
	ScalingModerate:     10,
	ScalingAggressive:   20,
}

// Lookup returns the named profile.
func Lookup(name string) (StrategyProfile, bool) {
	profile, ok := profiles[name]
	return profile, ok
}

// Resolve returns the named profile, falling back to DefaultStrategy.
func Resolve(name string) StrategyProfile {
	if profile, ok := profiles[name]; ok {
		return profile
	}
	return profiles[DefaultStrategy]
}

// StrategyNames lists the known profile names in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CPUFor returns the CPU allocation for a tier ("1" for unknown tiers).
func CPUFor(tier ComputeTier) string {
	if cpu, ok := cpuByTier[tier]; ok {
		return cpu
	}
	return "1"
}

// MemoryFor returns the memory allocation for a tier ("2Gi" for unknown tiers).
func MemoryFor(tier ComputeTier) string {
	if mem, ok := memoryByTier[tier]; ok {
		return mem
	}
	return "2Gi"
}

// MaxInstancesFor returns the instance ceiling for a posture (10 for unknown postures).
func MaxInstancesFor(posture ScalingPosture) int {
	if n, ok := maxInstancesByPosture[posture]; ok {
		return n
	}
	return 10
}

// MinInstancesFor scales to zero only under a conservative posture.
func MinInstancesFor(posture ScalingPosture) int {
	if posture == ScalingConservative {
		return 0
	}
	return 1
}
