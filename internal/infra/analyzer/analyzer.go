// Where: cli/internal/infra/analyzer/analyzer.go
// What: Repository analyzer producing a tech stack descriptor.
// Why: Turn a checkout into the facts the plan synthesizer needs.
package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/domain/stack"
)

var (
	targetFrameworkPattern = regexp.MustCompile(`<TargetFramework>\s*net(?:coreapp)?(\d+\.\d+)\s*</TargetFramework>`)

	webMarkers     = []string{"Microsoft.NET.Sdk.Web", "Microsoft.AspNetCore", "WebApplication"}
	programMarkers = []string{"WebApplication", "UseStartup"}

	skipDirs = map[string]struct{}{
		".git": {}, "bin": {}, "obj": {}, "node_modules": {}, ".vs": {}, ".idea": {},
	}
)

// databaseTokens is checked in order; the first kind with a matching token wins.
var databaseTokens = []struct {
	kind   stack.DatabaseKind
	tokens []string
}{
	{stack.DatabasePostgreSQL, []string{"npgsql", "postgresql"}},
	{stack.DatabaseSQLServer, []string{"microsoft.entityframeworkcore.sqlserver"}},
	{stack.DatabaseMySQL, []string{"mysql", "mariadb"}},
	{stack.DatabaseSQLite, []string{"sqlite"}},
}

// Analyzer scans a local checkout.
type Analyzer struct {
	logger *slog.Logger
	// ComposeLoader reads declared service names from a compose file.
	ComposeLoader func(ctx context.Context, path string) ([]string, error)
}

// New returns an Analyzer using compose-go for compose files.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger:        logger.With("component", "analyzer"),
		ComposeLoader: LoadComposeServices,
	}
}

type scan struct {
	projects       []string
	containerFiles []string
	composeFiles   []string
	settingsFiles  []string
}

// Analyze inspects root. It reports absence of markers rather than failing;
// only an unreadable root is an error.
func (a *Analyzer) Analyze(ctx context.Context, root string) (stack.Descriptor, error) {
	info, err := os.Stat(root)
	if err != nil {
		return stack.Descriptor{}, fmt.Errorf("stat repository: %w", err)
	}
	if !info.IsDir() {
		return stack.Descriptor{}, fmt.Errorf("repository path %s is not a directory", root)
	}

	found, err := walk(ctx, root)
	if err != nil {
		return stack.Descriptor{}, err
	}

	desc := stack.Descriptor{
		Root:           root,
		RuntimeVersion: stack.DefaultRuntimeVersion,
		Database:       stack.DefaultDatabase,
		ContainerFiles: found.containerFiles,
		HasCompose:     len(found.composeFiles) > 0,
		HasCI:          hasCIMarker(root),
	}

	rootContainerized := false
	for _, f := range found.containerFiles {
		if filepath.Dir(f) == "." {
			rootContainerized = true
			break
		}
	}

	var manifests strings.Builder
	runtimeFound := false
	for _, rel := range found.projects {
		content, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			a.logger.Warn("skip unreadable project file", "path", rel, "error", err)
			continue
		}
		text := string(content)
		manifests.WriteString(text)
		manifests.WriteByte('\n')

		if !runtimeFound {
			if m := targetFrameworkPattern.FindStringSubmatch(text); m != nil {
				desc.RuntimeVersion = m[1]
				runtimeFound = true
			}
		}

		dir := filepath.Dir(rel)
		if !isWebProject(text, filepath.Join(root, dir)) {
			a.logger.Debug("project has no web marker", "path", rel)
			continue
		}
		desc.Candidates = append(desc.Candidates, stack.Candidate{
			Name:          strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel)),
			Path:          filepath.ToSlash(dir),
			Containerized: rootContainerized || hasContainerFile(found.containerFiles, dir),
			APICapable:    isDir(filepath.Join(root, dir, "Controllers")),
		})
	}

	for _, rel := range found.settingsFiles {
		if content, err := os.ReadFile(filepath.Join(root, rel)); err == nil {
			manifests.Write(content)
			manifests.WriteByte('\n')
		}
	}
	desc.Database = detectDatabase(manifests.String())

	for _, rel := range found.composeFiles {
		if a.ComposeLoader == nil {
			break
		}
		names, err := a.ComposeLoader(ctx, filepath.Join(root, rel))
		if err != nil {
			a.logger.Warn("compose file could not be parsed", "path", rel, "error", err)
			continue
		}
		desc.ComposeServices = append(desc.ComposeServices, names...)
	}

	a.logger.Debug("repository scanned",
		"candidates", len(desc.Candidates),
		"database", desc.Database,
		"runtime", desc.RuntimeVersion,
		"container_files", len(desc.ContainerFiles),
		"compose", desc.HasCompose,
		"ci", desc.HasCI,
	)
	return desc, nil
}

func walk(ctx context.Context, root string) (scan, error) {
	var found scan
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if _, skip := skipDirs[entry.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		switch {
		case strings.HasSuffix(lower, ".csproj"):
			found.projects = append(found.projects, rel)
		case strings.HasPrefix(name, "Dockerfile"):
			found.containerFiles = append(found.containerFiles, filepath.ToSlash(rel))
		case isComposeFile(lower):
			found.composeFiles = append(found.composeFiles, rel)
		case strings.HasPrefix(lower, "appsettings") && strings.HasSuffix(lower, ".json"):
			found.settingsFiles = append(found.settingsFiles, rel)
		}
		return nil
	})
	if err != nil {
		return scan{}, fmt.Errorf("scan repository: %w", err)
	}
	sort.Strings(found.projects)
	sort.Strings(found.containerFiles)
	sort.Strings(found.composeFiles)
	sort.Strings(found.settingsFiles)
	return found, nil
}

func isComposeFile(lower string) bool {
	if !strings.HasPrefix(lower, "docker-compose") {
		return false
	}
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

func isWebProject(projectText, dir string) bool {
	for _, marker := range webMarkers {
		if strings.Contains(projectText, marker) {
			return true
		}
	}
	program, err := os.ReadFile(filepath.Join(dir, "Program.cs"))
	if err != nil {
		return false
	}
	for _, marker := range programMarkers {
		if strings.Contains(string(program), marker) {
			return true
		}
	}
	return false
}

func hasContainerFile(containerFiles []string, dir string) bool {
	dir = filepath.ToSlash(dir)
	for _, f := range containerFiles {
		if filepath.ToSlash(filepath.Dir(f)) == dir {
			return true
		}
	}
	return false
}

func detectDatabase(text string) stack.DatabaseKind {
	lower := strings.ToLower(text)
	for _, entry := range databaseTokens {
		for _, token := range entry.tokens {
			if strings.Contains(lower, token) {
				return entry.kind
			}
		}
	}
	return stack.DefaultDatabase
}

func hasCIMarker(root string) bool {
	for _, pattern := range []string{".github/workflows/*.yml", ".github/workflows/*.yaml"} {
		if matches, _ := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern))); len(matches) > 0 {
			return true
		}
	}
	for _, name := range []string{"azure-pipelines.yml", ".gitlab-ci.yml"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
