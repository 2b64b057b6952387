package entity

import "errors"

var (
	ErrNilComponent      = errors.New("entity: nil component")
	ErrInvalidKind       = errors.New("entity: invalid component kind")
	ErrComponentOwned    = errors.New("entity: component belongs to another entity")
	ErrComponentNotFound = errors.New("entity: component not found")
	ErrComponentType     = errors.New("entity: component has unexpected type")
	ErrDetached          = errors.New("entity: component has no parent")
	ErrBroadcastCycle    = errors.New("entity: broadcast cycle")
	ErrBroadcastDepth    = errors.New("entity: broadcast depth exceeded")
	ErrDuplicateName     = errors.New("entity: name already registered")
	ErrAlreadyManaged    = errors.New("entity: already registered with a manager")
	ErrNotManaged        = errors.New("entity: not registered with a manager")
	ErrNotFound          = errors.New("entity: not found")
	ErrNilEntity         = errors.New("entity: nil entity")
)
