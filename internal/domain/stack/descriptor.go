// Where: cli/internal/domain/stack/descriptor.go
// What: Tech stack descriptor produced by repository analysis.
// Why: Give the plan synthesizer a stable, immutable view of a checkout.
package stack

// DatabaseKind names the database driver family detected in a repository.
type DatabaseKind string

const (
	DatabasePostgreSQL DatabaseKind = "postgresql"
	DatabaseSQLServer  DatabaseKind = "sqlserver"
	DatabaseMySQL      DatabaseKind = "mysql"
	DatabaseSQLite     DatabaseKind = "sqlite"

	// DefaultDatabase is reported when no driver token is found.
	DefaultDatabase = DatabasePostgreSQL
	// DefaultRuntimeVersion is reported when no target framework is declared.
	DefaultRuntimeVersion = "8.0"
)

// Candidate is a project subtree that may be deployed on its own.
type Candidate struct {
	Name          string `json:"name" yaml:"name"`
	Path          string `json:"path" yaml:"path"`
	Containerized bool   `json:"containerized" yaml:"containerized"`
	APICapable    bool   `json:"api_capable" yaml:"api_capable"`
}

// Descriptor summarises what the analyzer found in a checkout.
// Candidate paths are relative to Root.
type Descriptor struct {
	Root            string       `json:"root,omitempty" yaml:"root,omitempty"`
	RuntimeVersion  string       `json:"runtime_version" yaml:"runtime_version"`
	Candidates      []Candidate  `json:"candidates" yaml:"candidates"`
	Database        DatabaseKind `json:"database" yaml:"database"`
	HasCI           bool         `json:"has_ci" yaml:"has_ci"`
	HasCompose      bool         `json:"has_compose" yaml:"has_compose"`
	ContainerFiles  []string     `json:"container_files,omitempty" yaml:"container_files,omitempty"`
	ComposeServices []string     `json:"compose_services,omitempty" yaml:"compose_services,omitempty"`
}

// HasContainerMarker reports whether a container build recipe exists
// anywhere in the tree.
func (d Descriptor) HasContainerMarker() bool {
	if len(d.ContainerFiles) > 0 {
		return true
	}
	for _, c := range d.Candidates {
		if c.Containerized {
			return true
		}
	}
	return false
}
