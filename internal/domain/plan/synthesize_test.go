package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poruru/autodeploy/cli/internal/domain/stack"
)

func sampleDescriptor() stack.Descriptor {
	return stack.Descriptor{
		RuntimeVersion: "8.0",
		Database:       stack.DatabasePostgreSQL,
		Candidates: []stack.Candidate{
			{Name: "Furniqo.API", Path: "src/Furniqo.API", Containerized: true, APICapable: true},
			{Name: "Orders_Service", Path: "src/Orders_Service"},
			{Name: "Shared.Utils", Path: "src/Shared.Utils", Containerized: true},
		},
	}
}

// =============================================================================
// Strategy table
// =============================================================================

func TestResolve_FallsBackToCostOptimized(t *testing.T) {
	profile := Resolve("does-not-exist")
	assert.Equal(t, StrategyCostOptimized, profile.Name)
	assert.Equal(t, ComputeLowest, profile.Compute)
	assert.Equal(t, "db-f1-micro", profile.DatabaseTier)
}

func TestStrategyNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{"balanced", "cost_optimized", "performance"}, StrategyNames())
}

func TestTierMaps(t *testing.T) {
	tests := []struct {
		tier   ComputeTier
		cpu    string
		memory string
	}{
		{ComputeLowest, "1", "1Gi"},
		{ComputeStandard, "2", "2Gi"},
		{ComputeBalanced, "2", "4Gi"},
		{ComputeHigh, "4", "8Gi"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.cpu, CPUFor(tt.tier))
			assert.Equal(t, tt.memory, MemoryFor(tt.tier))
		})
	}
	assert.Equal(t, 5, MaxInstancesFor(ScalingConservative))
	assert.Equal(t, 10, MaxInstancesFor(ScalingModerate))
	assert.Equal(t, 20, MaxInstancesFor(ScalingAggressive))
}

// =============================================================================
// Synthesize
// =============================================================================

func TestSynthesize_CostOptimized(t *testing.T) {
	p := Synthesize(sampleDescriptor(), Resolve(StrategyCostOptimized), 100)

	require.Len(t, p.Services, 2)
	assert.Equal(t, "furniqo-api", p.Services[0].Name)
	assert.Equal(t, "src/Furniqo.API", p.Services[0].SourcePath)
	assert.Equal(t, "orders-service", p.Services[1].Name)
	for _, svc := range p.Services {
		assert.Equal(t, "1", svc.CPU)
		assert.Equal(t, "1Gi", svc.Memory)
		assert.Equal(t, 5, svc.MaxInstances)
		assert.Equal(t, 0, svc.MinInstances)
		assert.Equal(t, 8080, svc.Port)
	}
	assert.Equal(t, "db-f1-micro", p.Database.Tier)
	assert.False(t, p.Database.HighAvailability)
	assert.True(t, p.Database.BackupEnabled)
	assert.Equal(t, stack.DatabasePostgreSQL, p.Database.Kind)
	assert.Equal(t, "cloud_run", p.Infrastructure.ComputeService)
	assert.Equal(t, "us-central1", p.Infrastructure.Region)
	assert.Equal(t, 2, p.Infrastructure.ServiceCount)
	assert.Equal(t, 60, p.Scaling.TargetCPUUtilization)
	assert.Equal(t, []string{"cpu", "memory", "requests", "latency"}, p.Monitoring.Metrics)
}

func TestSynthesize_PerformanceIsHighlyAvailable(t *testing.T) {
	p := Synthesize(sampleDescriptor(), Resolve(StrategyPerformance), 0)

	assert.True(t, p.Database.HighAvailability)
	assert.Equal(t, "db-n1-standard-1", p.Database.Tier)
	for _, svc := range p.Services {
		assert.Equal(t, "2", svc.CPU)
		assert.Equal(t, "4Gi", svc.Memory)
		assert.Equal(t, 20, svc.MaxInstances)
		assert.Equal(t, 1, svc.MinInstances)
	}
}

func TestSynthesize_ExcludesSharedRegardlessOfMarkers(t *testing.T) {
	desc := stack.Descriptor{Candidates: []stack.Candidate{
		{Name: "Shared.Utils", Containerized: true, APICapable: true},
	}}
	p := Synthesize(desc, Resolve(StrategyBalanced), 0)
	assert.Empty(t, p.Services)
}

func TestSynthesize_IsDeterministic(t *testing.T) {
	desc := sampleDescriptor()
	first, err := json.Marshal(Synthesize(desc, Resolve(StrategyBalanced), 50))
	require.NoError(t, err)
	second, err := json.Marshal(Synthesize(desc, Resolve(StrategyBalanced), 50))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestSynthesize_NamesUniqueAfterNormalization(t *testing.T) {
	desc := stack.Descriptor{Candidates: []stack.Candidate{
		{Name: "Api.Gateway"},
		{Name: "api_gateway"},
		{Name: "API-Gateway"},
	}}
	p := Synthesize(desc, Resolve(StrategyCostOptimized), 0)
	assert.Equal(t, []string{"api-gateway", "api-gateway-2", "api-gateway-3"}, p.ServiceNames())
}

func TestSynthesize_DefaultsDatabaseKind(t *testing.T) {
	p := Synthesize(stack.Descriptor{}, Resolve(StrategyCostOptimized), 0)
	assert.Equal(t, stack.DatabasePostgreSQL, p.Database.Kind)
}

func TestWithRegion_DoesNotMutateOriginal(t *testing.T) {
	p := Synthesize(sampleDescriptor(), Resolve(StrategyCostOptimized), 0)
	moved := p.WithRegion("europe-west1")
	assert.Equal(t, "europe-west1", moved.Infrastructure.Region)
	assert.Equal(t, "us-central1", p.Infrastructure.Region)
	assert.Equal(t, p, p.WithRegion(""))
}

// =============================================================================
// Cost
// =============================================================================

func TestEstimateCost_TwoServices(t *testing.T) {
	p := Plan{
		Services: []ServiceSpec{{Name: "a"}, {Name: "b"}},
		Database: DatabaseSpec{Tier: "db-f1-micro"},
	}
	assert.InDelta(t, 18.0, EstimateCost(p), 0.0001)
}

func TestWithinBudget(t *testing.T) {
	p := Plan{Services: []ServiceSpec{{Name: "a"}, {Name: "b"}}, Budget: 10}
	assert.False(t, WithinBudget(p))
	p.Budget = 18
	assert.True(t, WithinBudget(p))
	p.Budget = 0
	assert.True(t, WithinBudget(p))
}
