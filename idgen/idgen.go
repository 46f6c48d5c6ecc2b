// Package idgen issues the monotonically increasing counters used to name
// and identify shapes created during one editing session.
package idgen

import "github.com/meikuraledutech/process"

// Counter seeds. Task counters start at 1 so the first task created is
// numbered 2, next to the task of a freshly created default process.
const (
	seedUserTask       = 1
	seedSystemTask     = 1
	seedUserDecision   = 0
	seedSystemDecision = 0
	seedUserPersona    = -1
	seedSystemPersona  = -2
	seedGeneric        = 0
	seedTemp           = 0
)

// Generator holds one counter per shape kind plus a generic fallback, and
// the sequence of temporary shape ids. It is not safe for concurrent use;
// an editing session owns exactly one.
type Generator struct {
	userTask       int64
	systemTask     int64
	userDecision   int64
	systemDecision int64
	userPersona    int64
	systemPersona  int64
	generic        int64
	temp           int64
}

// New returns a generator with every counter at its seed.
func New() *Generator {
	g := &Generator{}
	g.Reset()
	return g
}

// ID pre-increments the counter of kind and returns it. Kinds without a
// counter of their own use the generic counter.
func (g *Generator) ID(kind process.ShapeKind) int64 {
	switch kind {
	case process.ShapeKindUserTask:
		g.userTask++
		return g.userTask
	case process.ShapeKindSystemTask:
		g.systemTask++
		return g.systemTask
	case process.ShapeKindUserDecision:
		g.userDecision++
		return g.userDecision
	case process.ShapeKindSystemDecision:
		g.systemDecision++
		return g.systemDecision
	}
	return g.Next()
}

// Next pre-increments and returns the generic counter.
func (g *Generator) Next() int64 {
	g.generic++
	return g.generic
}

// TempID returns the next temporary shape id: -1, -2, ... It does not touch
// the generic counter, so merge node names stay consecutive.
func (g *Generator) TempID() int64 {
	g.temp++
	return -g.temp
}

// UserPersonaID returns the current user persona id without consuming it.
func (g *Generator) UserPersonaID() int64 { return g.userPersona }

// SystemPersonaID returns the current system persona id without consuming it.
func (g *Generator) SystemPersonaID() int64 { return g.systemPersona }

// Reset restores every counter to its seed. Only call it when a fresh
// diagram starts: ids handed out before the reset will be issued again.
func (g *Generator) Reset() {
	g.userTask = seedUserTask
	g.systemTask = seedSystemTask
	g.userDecision = seedUserDecision
	g.systemDecision = seedSystemDecision
	g.userPersona = seedUserPersona
	g.systemPersona = seedSystemPersona
	g.generic = seedGeneric
	g.temp = seedTemp
}
