// Where: cli/internal/memory/memory.go
// What: Deployment memory service over a persisted document store.
// Why: Append deployment outcomes and answer similarity lookups for planning.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	domain "github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
)

// Store loads and saves the whole memory document.
type Store interface {
	Load(ctx context.Context) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) error
}

// Memory is an append-only log of deployments and failures. Appends are
// read-modify-write against the store and serialized within the process.
type Memory struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Memory backed by store.
func New(store Store, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{store: store, logger: logger.With("component", "memory"), now: time.Now}
}

// RecordDeployment appends one completed run and persists the document.
func (m *Memory) RecordDeployment(ctx context.Context, id string, intent deployment.Intent, p plan.Plan, result deployment.Result) error {
	record := domain.DeploymentRecord{
		ID:          id,
		Intent:      intent,
		Plan:        p,
		Result:      result,
		Fingerprint: domain.Fingerprint(p),
		Timestamp:   m.now().UTC(),
	}
	return m.append(ctx, func(doc *domain.Document) {
		doc.Deployments = append(doc.Deployments, record)
	})
}

// RecordFailure appends one aborted run and persists the document.
func (m *Memory) RecordFailure(ctx context.Context, intent deployment.Intent, cause error) error {
	record := domain.FailureRecord{
		Intent:    intent,
		Timestamp: m.now().UTC(),
	}
	if cause != nil {
		record.Error = cause.Error()
		record.Code = string(deployerr.Classify(cause))
		if s, err := deployerr.Suggest(cause); err == nil {
			record.Suggestion = s
		}
	}
	return m.append(ctx, func(doc *domain.Document) {
		doc.Failures = append(doc.Failures, record)
	})
}

// FindSimilar returns past deployments with the same fingerprint as p,
// most recent first.
func (m *Memory) FindSimilar(ctx context.Context, p plan.Plan) ([]domain.DeploymentRecord, error) {
	doc, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.FindSimilar(domain.Fingerprint(p)), nil
}

// RelevantExperiences summarises the similar deployments of p.
func (m *Memory) RelevantExperiences(ctx context.Context, p plan.Plan) ([]domain.Experience, error) {
	similar, err := m.FindSimilar(ctx, p)
	if err != nil {
		return nil, err
	}
	return domain.Experiences(similar), nil
}

// History lists deployments and failures, newest first. A non-empty
// fingerprint filters deployments.
func (m *Memory) History(ctx context.Context, fingerprint string) ([]domain.DeploymentRecord, []domain.FailureRecord, error) {
	doc, err := m.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	deployments := make([]domain.DeploymentRecord, 0, len(doc.Deployments))
	for _, d := range doc.Deployments {
		if fingerprint == "" || d.Fingerprint == fingerprint {
			deployments = append(deployments, d)
		}
	}
	sort.SliceStable(deployments, func(i, j int) bool {
		return deployments[i].Timestamp.After(deployments[j].Timestamp)
	})
	failures := append([]domain.FailureRecord(nil), doc.Failures...)
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Timestamp.After(failures[j].Timestamp)
	})
	return deployments, failures, nil
}

func (m *Memory) load(ctx context.Context) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.store.Load(ctx)
	if err != nil {
		return domain.Document{}, fmt.Errorf("load memory: %w", err)
	}
	return doc, nil
}

func (m *Memory) append(ctx context.Context, mutate func(*domain.Document)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load memory: %w", err)
	}
	mutate(&doc)
	if err := m.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	m.logger.Debug("memory saved", "deployments", len(doc.Deployments), "failures", len(doc.Failures))
	return nil
}
