// Where: cli/internal/domain/resource/graph.go
// What: Structured resource graph for one deployment target.
// Why: Keep generation logic testable without parsing serialized documents.
package resource

import "strings"

// Kind is the provisioning engine's resource type.
type Kind string

const (
	KindProjectService       Kind = "google_project_service"
	KindGlobalAddress        Kind = "google_compute_global_address"
	KindNetworkingConnection Kind = "google_service_networking_connection"
	KindSQLInstance          Kind = "google_sql_database_instance"
	KindSQLDatabase          Kind = "google_sql_database"
	KindSQLUser              Kind = "google_sql_user"
	KindRandomPassword       Kind = "random_password"
	KindArtifactRegistry     Kind = "google_artifact_registry_repository"
	KindComputeService       Kind = "google_cloud_run_service"
	KindAccessBinding        Kind = "google_cloud_run_service_iam_member"
)

// Output names exposed after apply.
const (
	OutputDatabaseConnection = "database_connection"
	OutputDatabasePrivateIP  = "database_private_ip"
	OutputServiceURLs        = "service_urls"
	OutputRegistryURL        = "artifact_registry_url"
	OutputSuffix             = "random_suffix"
)

// Address identifies a resource inside the graph ("<kind>.<label>").
type Address string

// NewAddress joins kind and label.
func NewAddress(kind Kind, label string) Address {
	return Address(string(kind) + "." + label)
}

// Ref is a deferred reference to another resource's attribute. The
// provisioning engine resolves it at apply time.
type Ref struct {
	Address   Address
	Attribute string
}

// Expression renders the reference in engine syntax.
func (r Ref) Expression() string {
	return string(r.Address) + "." + r.Attribute
}

// Segment is either literal text or a deferred reference.
type Segment struct {
	Literal string
	Ref     *Ref
}

// Interpolation is a string value assembled from literals and references.
type Interpolation []Segment

// Refs lists the references embedded in the value.
func (v Interpolation) Refs() []Ref {
	var refs []Ref
	for _, seg := range v {
		if seg.Ref != nil {
			refs = append(refs, *seg.Ref)
		}
	}
	return refs
}

// Template renders the value with ${...} placeholders.
func (v Interpolation) Template() string {
	var b strings.Builder
	for _, seg := range v {
		if seg.Ref != nil {
			b.WriteString("${")
			b.WriteString(seg.Ref.Expression())
			b.WriteString("}")
			continue
		}
		b.WriteString(seg.Literal)
	}
	return b.String()
}

// Target identifies where resources are created.
type Target struct {
	Project string
	Region  string
	Prefix  string
}

// Node is a flattened graph entry used for ordering checks and summaries.
type Node struct {
	Address   Address
	Name      string
	DependsOn []Address
}

type Network struct {
	AddressLabel    string
	AddressName     string
	ConnectionLabel string
}

type Database struct {
	InstanceLabel    string
	InstanceName     string
	EngineVersion    string
	Tier             string
	HighAvailability bool
	BackupEnabled    bool
	DatabaseLabel    string
	DatabaseName     string
	UserLabel        string
	UserName         string
	PasswordLabel    string
}

type Registry struct {
	Label        string
	RepositoryID string
}

type EnvVar struct {
	Name  string
	Value Interpolation
}

// ComputeService is one publicly reachable service definition.
type ComputeService struct {
	Label        string
	PlanName     string
	ServiceName  string
	Image        string
	CPU          string
	Memory       string
	Port         int
	MinInstances int
	MaxInstances int
	Env          []EnvVar
	DependsOn    []Address
}

// AccessBinding grants public invocation on one compute service.
type AccessBinding struct {
	Label        string
	ServiceLabel string
	Role         string
	Member       string
}

type Output struct {
	Name  string
	Value Interpolation
}

// ServiceURLOutput maps a plan service name to its endpoint reference.
type ServiceURLOutput struct {
	PlanName string
	Value    Ref
}

// Graph is the full set of resources for one invocation.
type Graph struct {
	Target      Target
	Suffix      string
	APIs        []string
	Network     Network
	Database    Database
	Registry    Registry
	Services    []ComputeService
	Bindings    []AccessBinding
	Outputs     []Output
	ServiceURLs []ServiceURLOutput
}

// Nodes flattens the graph in declaration order with explicit dependencies.
func (g Graph) Nodes() []Node {
	apis := NewAddress(KindProjectService, projectServicesLabel)
	addr := NewAddress(KindGlobalAddress, g.Network.AddressLabel)
	conn := NewAddress(KindNetworkingConnection, g.Network.ConnectionLabel)
	pw := NewAddress(KindRandomPassword, g.Database.PasswordLabel)
	inst := NewAddress(KindSQLInstance, g.Database.InstanceLabel)

	nodes := []Node{
		{Address: apis},
		{Address: addr, Name: g.Network.AddressName, DependsOn: []Address{apis}},
		{Address: conn, DependsOn: []Address{apis, addr}},
		{Address: pw},
		{Address: inst, Name: g.Database.InstanceName, DependsOn: []Address{apis, conn}},
		{Address: NewAddress(KindSQLDatabase, g.Database.DatabaseLabel), Name: g.Database.DatabaseName, DependsOn: []Address{inst}},
		{Address: NewAddress(KindSQLUser, g.Database.UserLabel), Name: g.Database.UserName, DependsOn: []Address{inst, pw}},
		{Address: NewAddress(KindArtifactRegistry, g.Registry.Label), Name: g.Registry.RepositoryID, DependsOn: []Address{apis}},
	}
	for _, svc := range g.Services {
		nodes = append(nodes, Node{
			Address:   NewAddress(KindComputeService, svc.Label),
			Name:      svc.ServiceName,
			DependsOn: append([]Address(nil), svc.DependsOn...),
		})
	}
	for _, b := range g.Bindings {
		nodes = append(nodes, Node{
			Address:   NewAddress(KindAccessBinding, b.Label),
			DependsOn: []Address{NewAddress(KindComputeService, b.ServiceLabel)},
		})
	}
	return nodes
}

// NamedResources returns the cloud names of every named resource.
func (g Graph) NamedResources() []string {
	var names []string
	for _, n := range g.Nodes() {
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	return names
}
