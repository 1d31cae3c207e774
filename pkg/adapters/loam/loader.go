// Package loam reads router declarations from a directory of documents
// managed by Loam: one Markdown (frontmatter) or JSON/YAML document per
// router, linked by a "parent" key.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.DeclarationLoader.
type Loader struct {
	Repo *loam.TypedRepository[RouterMetadata]
}

var (
	_ ports.DeclarationLoader = (*Loader)(nil)
	_ ports.Watchable         = (*Loader)(nil)
)

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[RouterMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only Loam repository at path.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[RouterMetadata](repo)), nil
}

type entry struct {
	source string
	meta   RouterMetadata
	decl   *domain.Declaration
}

// Load lists every document and assembles them into one tree. Exactly one
// document must have no parent. Siblings keep the order of their document
// IDs.
func (l *Loader) Load(ctx context.Context) (*domain.Declaration, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	entries := make([]*entry, 0, len(docs))
	byName := make(map[string]*entry, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}
		if existing, ok := byName[name]; ok {
			return nil, fmt.Errorf("collision detected: router '%s' is defined in both '%s' and '%s'", name, existing.source, doc.ID)
		}
		e := &entry{source: doc.ID, meta: doc.Data, decl: toDeclaration(name, doc.Data)}
		byName[name] = e
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].source < entries[j].source })

	var root *entry
	for _, e := range entries {
		if e.meta.Parent == "" {
			if root != nil {
				return nil, fmt.Errorf("%w: both '%s' and '%s' have no parent", domain.ErrRootExists, root.source, e.source)
			}
			root = e
			continue
		}
		parent, ok := byName[e.meta.Parent]
		if !ok {
			return nil, &domain.ConfigError{Router: e.decl.Name, Err: domain.ErrParentNotFound, Detail: e.meta.Parent}
		}
		if e.meta.Type == "" {
			return nil, &domain.ConfigError{Router: e.decl.Name, Err: domain.ErrInvalidDeclaration, Detail: "type is required"}
		}
		p := parent.decl
		if p.Children == nil {
			p.Children = make(map[string][]*domain.Declaration)
		}
		if _, seen := p.Children[e.meta.Type]; !seen && !slices.Contains(p.ChildOrder, e.meta.Type) {
			p.ChildOrder = append(p.ChildOrder, e.meta.Type)
		}
		p.Children[e.meta.Type] = append(p.Children[e.meta.Type], e.decl)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no document without a parent", domain.ErrInvalidDeclaration)
	}
	if cycle := unreachable(root, entries); cycle != "" {
		return nil, &domain.ConfigError{Router: cycle, Err: domain.ErrInvalidDeclaration, Detail: "not reachable from the root"}
	}
	return root.decl, nil
}

func toDeclaration(name string, meta RouterMetadata) *domain.Declaration {
	return &domain.Declaration{
		Name:                       name,
		Type:                       meta.Type,
		ParentName:                 meta.Parent,
		RouteKey:                   meta.RouteKey,
		IsPathRouter:               meta.IsPathRouter,
		ShouldInverselyActivate:    meta.ShouldInverselyActivate,
		DisableCaching:             meta.DisableCaching,
		RehydrateChildRoutersState: meta.RehydrateChildRoutersState,
		DefaultAction:              meta.DefaultAction,
		ChildOrder:                 slices.Clone(meta.ChildOrder),
	}
}

// unreachable returns the name of a router that parent links never connect
// to the root, which happens when documents form a cycle.
func unreachable(root *entry, entries []*entry) string {
	seen := make(map[*domain.Declaration]bool, len(entries))
	_ = root.decl.Walk(func(_, d *domain.Declaration, _ string) error {
		seen[d] = true
		return nil
	})
	for _, e := range entries {
		if !seen[e.decl] {
			return e.decl.Name
		}
	}
	return ""
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
