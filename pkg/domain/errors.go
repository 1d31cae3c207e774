package domain

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	ErrDuplicateName      = errors.New("duplicate router name")
	ErrDuplicateRouteKey  = errors.New("duplicate route key")
	ErrPathRouterConflict = errors.New("another router type at this level is already a path router")
	ErrUnknownRouterType  = errors.New("unknown router type")
	ErrRootExists         = errors.New("root router already exists")
	ErrParentNotFound     = errors.New("parent router not found")
	ErrInvalidPathRouter  = errors.New("router cannot be a path router")
	ErrInvalidDeclaration = errors.New("invalid router declaration")
)

// Dispatch errors.
var (
	ErrRouterNotFound  = errors.New("router not found")
	ErrActionNotFound  = errors.New("action not implemented")
	ErrEmptyActionName = errors.New("action name is empty")
	ErrMissingData     = errors.New("data router shown without data")
)

// ConfigError is returned when a declaration cannot be inserted into the tree.
// The tree is left unchanged for that router.
type ConfigError struct {
	Router string
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("router %q: %v: %s", e.Router, e.Err, e.Detail)
	}
	return fmt.Sprintf("router %q: %v", e.Router, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DispatchError is returned when an action is not implemented by a router's type.
type DispatchError struct {
	Router string
	Type   string
	Action string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("action %q is not implemented by router type %q (router %q)", e.Action, e.Type, e.Router)
}

func (e *DispatchError) Unwrap() error { return ErrActionNotFound }
