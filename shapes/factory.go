// Package shapes builds default, schema-correct shapes for every shape kind.
package shapes

import (
	"fmt"

	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/idgen"
)

// Default dimensions per shape kind.
const (
	UserTaskWidth    = 126
	UserTaskHeight   = 150
	SystemTaskWidth  = 126
	SystemTaskHeight = 150
	DecisionWidth    = 120
	DecisionHeight   = 120
	MergeNodeWidth   = 60
	MergeNodeHeight  = 60
	TerminalWidth    = 60
	TerminalHeight   = 60
)

// MergeNodeNamePrefix names merge nodes; they have no localized label.
const MergeNodeNamePrefix = "Merge Node"

// Settings is the per-session memory of the persona last assigned to each
// task kind. A zero Settings falls back to the localized default personas.
type Settings struct {
	UserTaskPersona   *process.ArtifactReference
	SystemTaskPersona *process.ArtifactReference
}

// Factory creates shapes for one editing session. It is not safe for
// concurrent use.
type Factory struct {
	ids      *idgen.Generator
	labels   Localizer
	settings Settings
}

// NewFactory returns a factory with a fresh id generator. labels may be nil,
// in which case every localized label is "".
func NewFactory(labels Localizer) *Factory {
	return &Factory{ids: idgen.New(), labels: labels}
}

// IDs exposes the session's generator to code creating shapes elsewhere.
func (f *Factory) IDs() *idgen.Generator { return f.ids }

// Settings returns a copy of the current persona settings.
func (f *Factory) Settings() Settings { return f.settings }

// SetUserTaskPersona makes ref the default persona of new user tasks.
func (f *Factory) SetUserTaskPersona(ref process.ArtifactReference) {
	next := f.settings
	next.UserTaskPersona = &ref
	f.settings = next
}

// SetSystemTaskPersona makes ref the default persona of new system tasks.
func (f *Factory) SetSystemTaskPersona(ref process.ArtifactReference) {
	next := f.settings
	next.SystemTaskPersona = &ref
	f.settings = next
}

// Reset starts a new diagram: counters and persona settings go back to
// their defaults.
func (f *Factory) Reset() {
	f.ids.Reset()
	f.settings = Settings{}
}

// Destroy forgets the persona settings only.
func (f *Factory) Destroy() {
	f.settings = Settings{}
}

// CreateShape dispatches to the constructor of kind.
func (f *Factory) CreateShape(kind process.ShapeKind, parentID, projectID, id int64, x, y float64) (*process.Shape, error) {
	switch kind {
	case process.ShapeKindStart:
		return f.CreateModelStartShape(parentID, projectID, id, x, y), nil
	case process.ShapeKindEnd:
		return f.CreateModelEndShape(parentID, projectID, id, x, y), nil
	case process.ShapeKindUserTask:
		return f.CreateModelUserTaskShape(parentID, projectID, id, x, y), nil
	case process.ShapeKindSystemTask:
		return f.CreateModelSystemTaskShape(parentID, projectID, id, x, y), nil
	case process.ShapeKindPreconditionSystemTask:
		return f.CreateModelPreconditionSystemTaskShape(parentID, projectID, id, x, y), nil
	case process.ShapeKindUserDecision:
		return f.CreateModelUserDecisionShape(parentID, projectID, id, x, y), nil
	case process.ShapeKindSystemDecision:
		return f.CreateModelSystemDecisionShape(parentID, projectID, id, x, y), nil
	case process.ShapeKindMergeNode:
		return f.CreateModelMergeNodeShape(parentID, projectID, id, x, y), nil
	}
	return nil, fmt.Errorf("shapes: unknown shape kind %d", int(kind))
}

func (f *Factory) CreateModelUserTaskShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := f.counterName(LabelNewUserTask, process.ShapeKindUserTask)
	s := newShape(parentID, projectID, id, name, "UT")
	s.PropertyValues = CreatePropertyValuesForUserTask(name, "", "", x, y)
	s.PersonaReference = f.userPersona(projectID)
	return s
}

func (f *Factory) CreateModelSystemTaskShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := f.counterName(LabelNewSystemTask, process.ShapeKindSystemTask)
	s := newShape(parentID, projectID, id, name, "ST")
	s.PropertyValues = CreatePropertyValuesForSystemTask(name, "", "", "", x, y)
	s.PersonaReference = f.systemPersona(projectID)
	return s
}

func (f *Factory) CreateModelPreconditionSystemTaskShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := label(f.labels, LabelPrecondition)
	s := newShape(parentID, projectID, id, name, "ST")
	s.PropertyValues = CreatePropertyValuesForPreconditionSystemTask(name, "", x, y)
	s.PersonaReference = f.systemPersona(projectID)
	return s
}

func (f *Factory) CreateModelUserDecisionShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := f.counterName(LabelNewUserDecision, process.ShapeKindUserDecision)
	s := newShape(parentID, projectID, id, name, "UD")
	s.PropertyValues = CreatePropertyValuesForUserDecision(name, "", x, y)
	return s
}

func (f *Factory) CreateModelSystemDecisionShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := f.counterName(LabelNewSystemDecision, process.ShapeKindSystemDecision)
	s := newShape(parentID, projectID, id, name, "SD")
	s.PropertyValues = CreatePropertyValuesForSystemDecision(name, "", x, y)
	return s
}

// CreateModelMergeNodeShape names the node from the generic counter.
func (f *Factory) CreateModelMergeNodeShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := fmt.Sprintf("%s %d", MergeNodeNamePrefix, f.ids.Next())
	s := newShape(parentID, projectID, id, name, "MN")
	s.PropertyValues = CreatePropertyValuesForMergeNode(name, x, y)
	return s
}

func (f *Factory) CreateModelStartShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := label(f.labels, LabelStart)
	s := newShape(parentID, projectID, id, name, "PROS")
	s.PropertyValues = CreatePropertyValuesForStart(name, x, y)
	return s
}

func (f *Factory) CreateModelEndShape(parentID, projectID, id int64, x, y float64) *process.Shape {
	name := label(f.labels, LabelEnd)
	s := newShape(parentID, projectID, id, name, "PROS")
	s.PropertyValues = CreatePropertyValuesForEnd(name, x, y)
	return s
}

func (f *Factory) counterName(key string, kind process.ShapeKind) string {
	return fmt.Sprintf("%s %d", label(f.labels, key), f.ids.ID(kind))
}

func (f *Factory) userPersona(projectID int64) *process.ArtifactReference {
	if ref := f.settings.UserTaskPersona; ref != nil {
		cp := *ref
		return &cp
	}
	return &process.ArtifactReference{
		ID:                 f.ids.UserPersonaID(),
		ProjectID:          projectID,
		Name:               label(f.labels, LabelUserPersona),
		BaseItemTypePredef: process.ItemTypeActor,
	}
}

func (f *Factory) systemPersona(projectID int64) *process.ArtifactReference {
	if ref := f.settings.SystemTaskPersona; ref != nil {
		cp := *ref
		return &cp
	}
	return &process.ArtifactReference{
		ID:                 f.ids.SystemPersonaID(),
		ProjectID:          projectID,
		Name:               label(f.labels, LabelSystemPersona),
		BaseItemTypePredef: process.ItemTypeActor,
	}
}

func newShape(parentID, projectID, id int64, name, prefix string) *process.Shape {
	return &process.Shape{
		ID:                 id,
		Name:               name,
		ParentID:           parentID,
		ProjectID:          projectID,
		TypePrefix:         prefix,
		ItemTypePredefined: process.ItemTypeShape,
	}
}
