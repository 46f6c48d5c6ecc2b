package editor

import (
	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/shapes"
)

// NewProcess lays out the default diagram of a new user-to-system process:
// start, precondition, one user task with its system task, and end, linked
// left to right. It resets the factory's counters, so the factory must
// belong to the session about to edit the result.
func NewProcess(f *shapes.Factory, projectID int64, name string) *process.Process {
	f.Reset()
	next := f.IDs().TempID

	y := 100.0
	chain := []*process.Shape{
		f.CreateModelStartShape(0, projectID, next(), 0, y),
		f.CreateModelPreconditionSystemTaskShape(0, projectID, next(), columnSpacing, y),
		f.CreateModelUserTaskShape(0, projectID, next(), 2*columnSpacing, y),
		f.CreateModelSystemTaskShape(0, projectID, next(), 3*columnSpacing, y),
		f.CreateModelEndShape(0, projectID, next(), 4*columnSpacing, y),
	}

	p := &process.Process{
		Name:      name,
		ProjectID: projectID,
		Shapes:    chain,
		PropertyValues: map[string]process.PropertyValue{
			process.KeyClientType: shapes.CreateClientTypeValueForProcess(process.ProcessTypeUserToSystemProcess),
		},
	}
	for i := 1; i < len(chain); i++ {
		p.Links = append(p.Links, &process.Link{SourceID: chain[i-1].ID, DestinationID: chain[i].ID})
	}
	return p
}

// SetPersona assigns ref to a user or system task and remembers it as the
// persona of tasks of that kind created later in the session.
func (s *Session) SetPersona(shapeID int64, ref process.ArtifactReference) bool {
	shape := s.proc.Shape(shapeID)
	if shape == nil {
		return false
	}
	switch shape.Kind() {
	case process.ShapeKindUserTask:
		s.factory.SetUserTaskPersona(ref)
	case process.ShapeKindSystemTask, process.ShapeKindPreconditionSystemTask:
		s.factory.SetSystemTaskPersona(ref)
	default:
		return false
	}
	cp := ref
	shape.PersonaReference = &cp
	s.dirty = true
	return true
}
