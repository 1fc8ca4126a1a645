// Where: cli/internal/domain/resource/generate.go
// What: Plan -> resource graph transform.
// Why: Thread one fresh suffix through every resource name per invocation.
package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
)

const (
	projectServicesLabel = "services"
	placeholderImage     = "gcr.io/cloudrun/hello:latest"
	invokerRole          = "roles/run.invoker"
	publicMember         = "allUsers"
)

var ErrInvalidTarget = errors.New("invalid deployment target")

// ProvisionedAPIs are enabled by the engine before any other resource.
var ProvisionedAPIs = []string{
	"servicenetworking.googleapis.com",
	"sqladmin.googleapis.com",
	"run.googleapis.com",
	"cloudbuild.googleapis.com",
	"artifactregistry.googleapis.com",
	"vpcaccess.googleapis.com",
}

// Generator builds resource graphs with a fresh suffix per call.
type Generator struct {
	NewSuffix func() (string, error)
}

// NewGenerator returns a generator backed by crypto/rand suffixes.
func NewGenerator() Generator {
	return Generator{NewSuffix: NewSuffix}
}

// Generate creates a new suffix and builds the graph for p.
func (g Generator) Generate(p plan.Plan, target Target) (Graph, error) {
	newSuffix := g.NewSuffix
	if newSuffix == nil {
		newSuffix = NewSuffix
	}
	suffix, err := newSuffix()
	if err != nil {
		return Graph{}, err
	}
	return Build(p, target, suffix)
}

// Build is the deterministic part of generation for a given suffix.
func Build(p plan.Plan, target Target, suffix string) (Graph, error) {
	target.Prefix = strings.ToLower(strings.TrimSpace(target.Prefix))
	if target.Prefix == "" {
		return Graph{}, fmt.Errorf("%w: naming prefix is required", ErrInvalidTarget)
	}
	if strings.TrimSpace(target.Project) == "" {
		return Graph{}, fmt.Errorf("%w: project is required", ErrInvalidTarget)
	}
	if target.Region == "" {
		target.Region = p.Infrastructure.Region
	}
	if target.Region == "" {
		target.Region = plan.DefaultRegion
	}
	if err := ValidateSuffix(suffix); err != nil {
		return Graph{}, err
	}

	engineFamily, engineVersion := databaseEngine(p.Database.Kind)
	sqlPrefix := strings.ReplaceAll(target.Prefix, "-", "_")

	g := Graph{
		Target: target,
		Suffix: suffix,
		APIs:   append([]string(nil), ProvisionedAPIs...),
		Network: Network{
			AddressLabel:    "private_ip_address",
			AddressName:     fmt.Sprintf("%s-private-ip-%s", target.Prefix, suffix),
			ConnectionLabel: "private_vpc_connection",
		},
		Database: Database{
			InstanceLabel:    "primary",
			InstanceName:     fmt.Sprintf("%s-%s-%s", target.Prefix, engineFamily, suffix),
			EngineVersion:    engineVersion,
			Tier:             p.Database.Tier,
			HighAvailability: p.Database.HighAvailability,
			BackupEnabled:    p.Database.BackupEnabled,
			DatabaseLabel:    "database",
			DatabaseName:     fmt.Sprintf("%s_db_%s", sqlPrefix, suffix),
			UserLabel:        "users",
			UserName:         fmt.Sprintf("%s_user_%s", sqlPrefix, suffix),
			PasswordLabel:    "db_password",
		},
		Registry: Registry{
			Label:        "repo",
			RepositoryID: RegistryID(target.Prefix, suffix),
		},
	}

	inst := NewAddress(KindSQLInstance, g.Database.InstanceLabel)
	db := NewAddress(KindSQLDatabase, g.Database.DatabaseLabel)
	user := NewAddress(KindSQLUser, g.Database.UserLabel)
	pw := NewAddress(KindRandomPassword, g.Database.PasswordLabel)
	connection := Interpolation{
		{Literal: "Host="}, {Ref: &Ref{Address: inst, Attribute: "private_ip_address"}},
		{Literal: ";Database="}, {Ref: &Ref{Address: db, Attribute: "name"}},
		{Literal: ";Username="}, {Ref: &Ref{Address: user, Attribute: "name"}},
		{Literal: ";Password="}, {Ref: &Ref{Address: pw, Attribute: "result"}},
		{Literal: ";SSL Mode=Require;Trust Server Certificate=true"},
	}

	for _, svc := range p.Services {
		label := serviceLabel(svc.Name)
		g.Services = append(g.Services, ComputeService{
			Label:        label,
			PlanName:     svc.Name,
			ServiceName:  ServiceName(svc.Name, suffix),
			Image:        placeholderImage,
			CPU:          svc.CPU,
			Memory:       svc.Memory,
			Port:         svc.Port,
			MinInstances: svc.MinInstances,
			MaxInstances: svc.MaxInstances,
			Env:          []EnvVar{{Name: "DATABASE_URL", Value: connection}},
			DependsOn:    []Address{inst, db, user},
		})
		g.Bindings = append(g.Bindings, AccessBinding{
			Label:        label + "_public",
			ServiceLabel: label,
			Role:         invokerRole,
			Member:       publicMember,
		})
		g.ServiceURLs = append(g.ServiceURLs, ServiceURLOutput{
			PlanName: svc.Name,
			Value:    Ref{Address: NewAddress(KindComputeService, label), Attribute: "status[0].url"},
		})
	}

	g.Outputs = []Output{
		{Name: OutputDatabaseConnection, Value: refValue(inst, "connection_name")},
		{Name: OutputDatabasePrivateIP, Value: refValue(inst, "private_ip_address")},
		{Name: OutputRegistryURL, Value: refValue(NewAddress(KindArtifactRegistry, g.Registry.Label), "repository_id")},
		{Name: OutputSuffix, Value: Interpolation{{Literal: suffix}}},
	}
	return g, nil
}

// ServiceName is the cloud name of a plan service for a given suffix.
func ServiceName(planName, suffix string) string {
	return fmt.Sprintf("%s-%s", planName, suffix)
}

// RegistryID is the artifact registry repository id for a prefix and suffix.
func RegistryID(prefix, suffix string) string {
	return fmt.Sprintf("%s-repo-%s", strings.ToLower(prefix), suffix)
}

// ImageRef is the registry location for a service image.
func ImageRef(target Target, suffix, service string) string {
	return fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s:latest",
		target.Region, target.Project, RegistryID(target.Prefix, suffix), service)
}

func refValue(addr Address, attr string) Interpolation {
	return Interpolation{{Ref: &Ref{Address: addr, Attribute: attr}}}
}

func serviceLabel(name string) string {
	return "svc_" + strings.ReplaceAll(name, "-", "_")
}

func databaseEngine(kind stack.DatabaseKind) (family, version string) {
	switch kind {
	case stack.DatabaseMySQL:
		return "mysql", "MYSQL_8_0"
	case stack.DatabaseSQLServer:
		return "sqlserver", "SQLSERVER_2019_STANDARD"
	default:
		return "postgres", "POSTGRES_14"
	}
}
