package ecs

import "errors"

var (
	ErrEntityNotFound    = errors.New("entity does not exist")
	ErrComponentExists   = errors.New("component already exists on entity")
	ErrComponentNotFound = errors.New("component does not exist on entity")
	ErrNameTaken         = errors.New("name already registered")
	ErrInvalidParent     = errors.New("invalid parent")
	ErrNoCodec           = errors.New("no codec registered")
)
