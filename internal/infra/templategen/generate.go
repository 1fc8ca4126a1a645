// Where: cli/internal/infra/templategen/generate.go
// What: Serialize a resource graph into provisioning engine documents.
// Why: Keep the graph as data and the textual syntax in embedded templates.
package templategen

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/infra/fileops"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateCache sync.Map

const (
	FileMain      = "main.tf"
	FileVariables = "variables.tf"
	FileVersions  = "versions.tf"
	FileBackend   = "backend.tf"
)

// Backend configures a remote S3-compatible state backend.
type Backend struct {
	Bucket    string
	Key       string
	Region    string
	LockTable string
	Endpoint  string
}

// Options control optional documents.
type Options struct {
	Backend *Backend
}

// dependencyView exposes explicit depends_on lists to the main template.
type dependencyView struct {
	Address    []resource.Address
	Connection []resource.Address
	Instance   []resource.Address
	Registry   []resource.Address
}

type mainData struct {
	resource.Graph
	Node dependencyView
}

// Render returns file name -> content for g.
func Render(g resource.Graph, opts Options) (map[string]string, error) {
	data := mainData{Graph: g, Node: dependencies(g)}

	files := map[string]string{}
	main, err := renderTemplate("main.tf.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", FileMain, err)
	}
	files[FileMain] = main

	variables, err := renderTemplate("variables.tf.tmpl", g)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", FileVariables, err)
	}
	files[FileVariables] = variables

	versions, err := renderTemplate("versions.tf.tmpl", g)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", FileVersions, err)
	}
	files[FileVersions] = versions

	if opts.Backend != nil {
		if strings.TrimSpace(opts.Backend.Bucket) == "" {
			return nil, fmt.Errorf("render %s: state bucket is required", FileBackend)
		}
		backend, err := renderTemplate("backend.tf.tmpl", *opts.Backend)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", FileBackend, err)
		}
		files[FileBackend] = backend
	}
	return files, nil
}

// Write renders g into dir, replacing any previous contents.
func Write(dir string, g resource.Graph, opts Options) (map[string]string, error) {
	files, err := Render(g, opts)
	if err != nil {
		return nil, err
	}
	if err := fileops.ReplaceDir(dir, files); err != nil {
		return nil, fmt.Errorf("write infrastructure documents: %w", err)
	}
	return files, nil
}

func dependencies(g resource.Graph) dependencyView {
	view := dependencyView{}
	for _, n := range g.Nodes() {
		switch {
		case strings.HasPrefix(string(n.Address), string(resource.KindGlobalAddress)+"."):
			view.Address = n.DependsOn
		case strings.HasPrefix(string(n.Address), string(resource.KindNetworkingConnection)+"."):
			view.Connection = n.DependsOn
		case strings.HasPrefix(string(n.Address), string(resource.KindSQLInstance)+"."):
			view.Instance = n.DependsOn
		case strings.HasPrefix(string(n.Address), string(resource.KindArtifactRegistry)+"."):
			view.Registry = n.DependsOn
		}
	}
	return view
}

func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["deps"] = func(addrs []resource.Address) string {
		parts := make([]string, len(addrs))
		for i, a := range addrs {
			parts[i] = string(a)
		}
		return strings.Join(parts, ", ")
	}
	funcs["hcl"] = hclValue
	return funcs
}

// hclValue renders a bare reference as an expression and anything else as
// a quoted string with ${...} interpolation.
func hclValue(v resource.Interpolation) string {
	if len(v) == 1 && v[0].Ref != nil {
		return v[0].Ref.Expression()
	}
	return strconv.Quote(v.Template())
}

func renderTemplate(name string, data any) (string, error) {
	tmpl, err := loadTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func loadTemplate(name string) (*template.Template, error) {
	if value, ok := templateCache.Load(name); ok {
		cached, ok := value.(*template.Template)
		if !ok {
			return nil, fmt.Errorf("template cache type mismatch for %s", name)
		}
		return cached, nil
	}
	pathName := path.Join("templates", name)
	tmpl, err := template.New(path.Base(pathName)).Funcs(funcMap()).ParseFS(templateFS, pathName)
	if err != nil {
		return nil, err
	}
	templateCache.Store(name, tmpl)
	return tmpl, nil
}
