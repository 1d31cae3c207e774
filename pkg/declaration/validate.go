package declaration

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/hashicorp/go-multierror"
)

// Validate checks a declaration tree against a template table without
// building it, and reports every problem found rather than the first one.
// Each reported problem is a *domain.ConfigError; the aggregate supports
// errors.Is and errors.As.
func Validate(decl *domain.Declaration, templates domain.Templates) error {
	if decl == nil {
		return &domain.ConfigError{Err: domain.ErrInvalidDeclaration, Detail: "declaration is nil"}
	}

	v := &validator{
		templates: templates,
		names:     make(map[string]bool),
		routeKeys: make(map[string]string),
		isPath:    make(map[*domain.Declaration]bool),
		pathType:  make(map[*domain.Declaration]string),
	}
	_ = decl.Walk(func(parent, d *domain.Declaration, childType string) error {
		v.check(parent, d, childType)
		return nil
	})
	return v.result.ErrorOrNil()
}

type validator struct {
	templates domain.Templates
	result    *multierror.Error

	names     map[string]bool
	routeKeys map[string]string
	isPath    map[*domain.Declaration]bool
	// pathType is the child type holding path routers under a parent.
	pathType map[*domain.Declaration]string
}

func (v *validator) fail(router string, err error, detail string, args ...any) {
	v.result = multierror.Append(v.result, &domain.ConfigError{
		Router: router,
		Err:    err,
		Detail: fmt.Sprintf(detail, args...),
	})
}

func (v *validator) check(parent, d *domain.Declaration, typ string) {
	if parent == nil && typ == "" {
		typ = domain.TypeRoot
	}

	if d.Name == "" {
		v.fail("", domain.ErrInvalidDeclaration, "router of type %q has no name", typ)
	} else if v.names[d.Name] {
		v.fail(d.Name, domain.ErrDuplicateName, "declared more than once")
	}
	v.names[d.Name] = true

	if parent != nil {
		if d.Type != "" && d.Type != typ {
			v.fail(d.Name, domain.ErrInvalidDeclaration, "declared type %q under %q children", d.Type, typ)
		}
		if d.ParentName != "" && d.ParentName != parent.Name {
			v.fail(d.Name, domain.ErrInvalidDeclaration, "parent %q does not match enclosing router %q", d.ParentName, parent.Name)
		}
	}

	tmpl, ok := v.templates[typ]
	if !ok {
		v.fail(d.Name, domain.ErrUnknownRouterType, "%s", typ)
		return
	}

	routeKey := d.RouteKey
	if routeKey == "" {
		routeKey = d.Name
	}
	if owner, taken := v.routeKeys[routeKey]; taken {
		v.fail(d.Name, domain.ErrDuplicateRouteKey, "%q is used by %q", routeKey, owner)
	} else {
		v.routeKeys[routeKey] = d.Name
	}

	for _, action := range d.DefaultAction {
		if _, ok := tmpl.Action(action); !ok {
			v.fail(d.Name, domain.ErrActionNotFound, "default action %q is not implemented by type %q", action, typ)
		}
	}

	parentIsPath := parent == nil || v.isPath[parent]
	explicit := d.IsPathRouter != nil && *d.IsPathRouter
	switch {
	case explicit && !tmpl.Config.CanBePathRouter:
		v.fail(d.Name, domain.ErrInvalidPathRouter, "router type %q cannot be a path router", typ)
	case explicit && !parentIsPath:
		v.fail(d.Name, domain.ErrInvalidPathRouter, "parent %q is not a path router", parent.Name)
	}

	wantsPath := tmpl.Config.IsPathRouter != nil && *tmpl.Config.IsPathRouter
	if d.IsPathRouter != nil {
		wantsPath = *d.IsPathRouter
	}
	path := tmpl.Config.CanBePathRouter && parentIsPath && wantsPath
	v.isPath[d] = path

	if path && parent != nil {
		if other, claimed := v.pathType[parent]; claimed && other != typ {
			v.fail(d.Name, domain.ErrPathRouterConflict, "type %q already holds the path under %q", other, parent.Name)
		} else {
			v.pathType[parent] = typ
		}
	}
}
