package process

import (
	"context"
	"errors"
)

var (
	ErrCycleDetected       = errors.New("process: cycle detected, process is not acyclic")
	ErrProcessNotFound     = errors.New("process: process not found")
	ErrShapeNotFound       = errors.New("process: shape not found")
	ErrDuplicateShape      = errors.New("process: duplicate shape id")
	ErrDanglingLink        = errors.New("process: link references a missing shape")
	ErrDuplicateOrderIndex = errors.New("process: duplicate order index within a fan-out")
	ErrUnpairedBranch      = errors.New("process: branch destination link has no matching branch")
)

// Store defines the contract for persisting and retrieving processes.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Process (bulk operations)
	SaveProcess(ctx context.Context, p *Process) (*Process, error)
	GetProcess(ctx context.Context, processID string) (*Process, error)
	DeleteProcess(ctx context.Context, processID string) error

	// Shapes and links
	ListShapes(ctx context.Context, processID string) ([]Shape, error)
	ListLinks(ctx context.Context, processID string) ([]Link, error)
}
