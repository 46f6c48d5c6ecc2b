package process

import (
	"encoding/json"
	"math"
	"reflect"
)

// Property keys of a shape's property bag. They must match what the
// persistence layer serializes on both sides of a save/load round trip.
const (
	KeyLabel              = "label"
	KeyDescription        = "description"
	KeyX                  = "x"
	KeyY                  = "y"
	KeyWidth              = "width"
	KeyHeight             = "height"
	KeyClientType         = "clientType"
	KeyObjective          = "itemLabel"
	KeyAssociatedImageURL = "associatedImageUrl"
	KeyImageID            = "imageId"
	KeyStoryLinks         = "storyLinks"
)

// PropertyTypePredefined tags a property value with its system property type.
type PropertyTypePredefined int

const (
	PropertyTypeNone               PropertyTypePredefined = 0
	PropertyTypeName               PropertyTypePredefined = 4098
	PropertyTypeDescription        PropertyTypePredefined = 4099
	PropertyTypeLabel              PropertyTypePredefined = 4104
	PropertyTypeClientType         PropertyTypePredefined = 4106
	PropertyTypeItemLabel          PropertyTypePredefined = 4102
	PropertyTypeImageID            PropertyTypePredefined = 4109
	PropertyTypeStoryLink          PropertyTypePredefined = 4110
	PropertyTypeAssociatedImageURL PropertyTypePredefined = 4111
	PropertyTypeX                  PropertyTypePredefined = 8193
	PropertyTypeY                  PropertyTypePredefined = 8194
	PropertyTypeWidth              PropertyTypePredefined = 8195
	PropertyTypeHeight             PropertyTypePredefined = 8196
)

// LocalTypeID is the type id carried by locally synthesized property values
// until the server assigns the real one on first save.
const LocalTypeID = -1

// ItemTypePredefined identifies the artifact type of a shape.
type ItemTypePredefined int

const (
	ItemTypeProcess ItemTypePredefined = 4114
	ItemTypeShape   ItemTypePredefined = 4115
	ItemTypeActor   ItemTypePredefined = 4133
)

// PropertyValue is one entry of a shape's property bag.
type PropertyValue struct {
	PropertyName   string                 `json:"propertyName"`
	TypePredefined PropertyTypePredefined `json:"typePredefined"`
	TypeID         int64                  `json:"typeId"`
	Value          any                    `json:"value"`
}

// ArtifactReference points at another artifact, e.g. the persona acting on a task.
type ArtifactReference struct {
	ID                 int64              `json:"id"`
	ProjectID          int64              `json:"projectId"`
	Name               string             `json:"name"`
	TypePrefix         string             `json:"typePrefix"`
	BaseItemTypePredef ItemTypePredefined `json:"baseItemTypePredefined"`
}

// Shape is a node of a process: a task, decision, start/end marker or merge point.
// An ID <= 0 marks a shape created locally and not yet persisted.
type Shape struct {
	ID                 int64                    `json:"id"`
	Name               string                   `json:"name"`
	ParentID           int64                    `json:"parentId"`
	ProjectID          int64                    `json:"projectId"`
	TypePrefix         string                   `json:"typePrefix"`
	ItemTypePredefined ItemTypePredefined       `json:"baseItemTypePredefined"`
	PropertyValues     map[string]PropertyValue `json:"propertyValues"`
	PersonaReference   *ArtifactReference       `json:"personaReference,omitempty"`
	AssociatedArtifact *ArtifactReference       `json:"associatedArtifact,omitempty"`
}

// Link is a directed, order-indexed edge between two shapes.
// DestinationID 0 means the link is not wired to a node yet.
type Link struct {
	SourceID      int64   `json:"sourceId"`
	DestinationID int64   `json:"destinationId"`
	OrderIndex    float64 `json:"orderindex"`
	Label         string  `json:"label,omitempty"`
}

// Process is a whole diagram: its shapes, the ordered links between them and,
// per decision branch, the link naming the branch's merge node.
type Process struct {
	ID                             string                   `json:"id,omitempty"`
	Name                           string                   `json:"name"`
	ProjectID                      int64                    `json:"projectId"`
	Shapes                         []*Shape                 `json:"shapes"`
	Links                          []*Link                  `json:"links"`
	DecisionBranchDestinationLinks []*Link                  `json:"decisionBranchDestinationLinks"`
	PropertyValues                 map[string]PropertyValue `json:"propertyValues"`
}

// Property returns the named property value, or nil if the key is absent.
func (s *Shape) Property(key string) *PropertyValue {
	if s == nil || s.PropertyValues == nil {
		return nil
	}
	pv, ok := s.PropertyValues[key]
	if !ok {
		return nil
	}
	return &pv
}

// SetProperty stores v under key, keeping the existing type metadata if present.
// Reports whether the stored value changed.
func (s *Shape) SetProperty(key string, v any) bool {
	if s.PropertyValues == nil {
		s.PropertyValues = make(map[string]PropertyValue)
	}
	pv, ok := s.PropertyValues[key]
	if ok && isComparable(pv.Value) && isComparable(v) && pv.Value == v {
		return false
	}
	if !ok {
		pv = PropertyValue{PropertyName: key, TypeID: LocalTypeID}
	}
	pv.Value = v
	s.PropertyValues[key] = pv
	return true
}

// Label returns the shape's label property, or "" when unset.
func (s *Shape) Label() string {
	pv := s.Property(KeyLabel)
	if pv == nil {
		return ""
	}
	str, _ := pv.Value.(string)
	return str
}

// Kind decodes the clientType property. Shapes without one are merge nodes.
func (s *Shape) Kind() ShapeKind {
	pv := s.Property(KeyClientType)
	if pv == nil {
		return ShapeKindMergeNode
	}
	n, ok := toInt64(pv.Value)
	if !ok {
		return ShapeKindMergeNode
	}
	return ShapeKind(n)
}

// X returns the x coordinate, 0 when unset.
func (s *Shape) X() float64 { return s.float(KeyX) }

// Y returns the y coordinate, 0 when unset.
func (s *Shape) Y() float64 { return s.float(KeyY) }

func (s *Shape) float(key string) float64 {
	pv := s.Property(key)
	if pv == nil {
		return 0
	}
	f, _ := toFloat64(pv.Value)
	return f
}

// IsLocal reports whether the shape has not been persisted yet.
func (s *Shape) IsLocal() bool { return s.ID <= 0 }

// Kind decodes the process-level clientType tag.
func (p *Process) Kind() ProcessType {
	pv, ok := p.PropertyValues[KeyClientType]
	if !ok {
		return ProcessTypeNone
	}
	n, _ := toInt64(pv.Value)
	return ProcessType(n)
}

// Shape returns the shape with the given id, or nil.
func (p *Process) Shape(id int64) *Shape {
	for _, s := range p.Shapes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// DestinationLink returns the branch destination link of decisionID with the
// given order index, or nil.
func (p *Process) DestinationLink(decisionID int64, orderIndex float64) *Link {
	for _, l := range p.DecisionBranchDestinationLinks {
		if l.SourceID == decisionID && l.OrderIndex == orderIndex {
			return l
		}
	}
	return nil
}

// RemoveLink drops l (by pointer) from the link collection.
func (p *Process) RemoveLink(l *Link) bool {
	return removeLink(&p.Links, l)
}

// RemoveDestinationLink drops l (by pointer) from the destination links.
func (p *Process) RemoveDestinationLink(l *Link) bool {
	return removeLink(&p.DecisionBranchDestinationLinks, l)
}

// RemoveShape drops the shape with the given id and every link touching it.
func (p *Process) RemoveShape(id int64) bool {
	idx := -1
	for i, s := range p.Shapes {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	p.Shapes = append(p.Shapes[:idx], p.Shapes[idx+1:]...)

	kept := p.Links[:0]
	for _, l := range p.Links {
		if l.SourceID != id && l.DestinationID != id {
			kept = append(kept, l)
		}
	}
	p.Links = kept
	return true
}

func removeLink(links *[]*Link, l *Link) bool {
	for i, cur := range *links {
		if cur == l {
			*links = append((*links)[:i], (*links)[i+1:]...)
			return true
		}
	}
	return false
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

// toInt64 accepts every numeric representation a property value may take
// after a JSON or msgpack round trip.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case ShapeKind:
		return int64(n), true
	case ProcessType:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	i, ok := toInt64(v)
	return float64(i), ok
}
