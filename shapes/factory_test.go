package shapes

import (
	"testing"

	"github.com/meikuraledutech/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestFactory_CreateModelUserTaskShape(t *testing.T) {
	f := NewFactory(DefaultCatalog())

	s := f.CreateModelUserTaskShape(2, 1, -5, 10, 20)

	require.NotNil(t, s)
	assert.Equal(t, int64(-5), s.ID)
	assert.Equal(t, int64(2), s.ParentID)
	assert.Equal(t, int64(1), s.ProjectID)
	assert.Equal(t, "User Task 2", s.Name)
	assert.Equal(t, "User Task 2", s.Label())
	assert.Equal(t, 10.0, s.PropertyValues[process.KeyX].Value)
	assert.Equal(t, 20.0, s.PropertyValues[process.KeyY].Value)
	assert.Equal(t, process.ShapeKindUserTask, s.Kind())
	assert.Equal(t, int(process.ShapeKindUserTask), s.PropertyValues[process.KeyClientType].Value)

	for key, pv := range s.PropertyValues {
		assert.Equal(t, int64(process.LocalTypeID), pv.TypeID, key)
	}
	assert.Contains(t, s.PropertyValues, process.KeyObjective)
	assert.Contains(t, s.PropertyValues, process.KeyStoryLinks)

	next := f.CreateModelUserTaskShape(2, 1, -6, 0, 0)
	assert.Equal(t, "User Task 3", next.Name)
}

func TestFactory_PropertySchema(t *testing.T) {
	f := NewFactory(DefaultCatalog())
	common := []string{
		process.KeyLabel, process.KeyDescription, process.KeyX, process.KeyY,
		process.KeyWidth, process.KeyHeight, process.KeyClientType,
	}

	tests := []struct {
		name  string
		shape *process.Shape
		kind  process.ShapeKind
		extra []string
	}{
		{
			name:  "user task",
			shape: f.CreateModelUserTaskShape(1, 1, -1, 0, 0),
			kind:  process.ShapeKindUserTask,
			extra: []string{process.KeyObjective, process.KeyStoryLinks},
		},
		{
			name:  "system task",
			shape: f.CreateModelSystemTaskShape(1, 1, -2, 0, 0),
			kind:  process.ShapeKindSystemTask,
			extra: []string{process.KeyAssociatedImageURL, process.KeyImageID, process.KeyStoryLinks},
		},
		{
			name:  "user decision",
			shape: f.CreateModelUserDecisionShape(1, 1, -3, 0, 0),
			kind:  process.ShapeKindUserDecision,
		},
		{
			name:  "system decision",
			shape: f.CreateModelSystemDecisionShape(1, 1, -4, 0, 0),
			kind:  process.ShapeKindSystemDecision,
		},
		{
			name:  "merge node",
			shape: f.CreateModelMergeNodeShape(1, 1, -5, 0, 0),
			kind:  process.ShapeKindMergeNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := append(append([]string{}, common...), tt.extra...)
			got := make([]string, 0, len(tt.shape.PropertyValues))
			for key := range tt.shape.PropertyValues {
				got = append(got, key)
			}
			assert.ElementsMatch(t, want, got)
			assert.Equal(t, tt.kind, tt.shape.Kind())
			assert.Equal(t, process.ItemTypeShape, tt.shape.ItemTypePredefined)
		})
	}
}

func TestFactory_CounterNames(t *testing.T) {
	f := NewFactory(DefaultCatalog())

	assert.Equal(t, "System Task 2", f.CreateModelSystemTaskShape(0, 0, -1, 0, 0).Name)
	assert.Equal(t, "User Decision 1", f.CreateModelUserDecisionShape(0, 0, -2, 0, 0).Name)
	assert.Equal(t, "System Decision 1", f.CreateModelSystemDecisionShape(0, 0, -3, 0, 0).Name)
	assert.Equal(t, "Merge Node 1", f.CreateModelMergeNodeShape(0, 0, -4, 0, 0).Name)
	assert.Equal(t, "Merge Node 2", f.CreateModelMergeNodeShape(0, 0, -5, 0, 0).Name)
}

func TestFactory_MissingLabelsDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		labels Localizer
	}{
		{name: "nil localizer", labels: nil},
		{name: "empty catalog", labels: mustCatalog(t, language.German, map[string]string{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFactory(tt.labels)
			s := f.CreateModelUserTaskShape(0, 0, -1, 0, 0)
			assert.Equal(t, " 2", s.Name)
			assert.Equal(t, "", s.PersonaReference.Name)
			assert.Equal(t, "", f.CreateModelStartShape(0, 0, -2, 0, 0).Name)
		})
	}
}

func TestFactory_PersonaDefaults(t *testing.T) {
	f := NewFactory(DefaultCatalog())

	ut := f.CreateModelUserTaskShape(0, 7, -1, 0, 0)
	require.NotNil(t, ut.PersonaReference)
	assert.Equal(t, int64(-1), ut.PersonaReference.ID)
	assert.Equal(t, "User", ut.PersonaReference.Name)
	assert.Equal(t, int64(7), ut.PersonaReference.ProjectID)

	st := f.CreateModelSystemTaskShape(0, 7, -2, 0, 0)
	require.NotNil(t, st.PersonaReference)
	assert.Equal(t, int64(-2), st.PersonaReference.ID)
	assert.Equal(t, "System", st.PersonaReference.Name)

	f.SetUserTaskPersona(process.ArtifactReference{ID: 42, Name: "Clerk"})
	f.SetSystemTaskPersona(process.ArtifactReference{ID: 43, Name: "Billing"})

	ut = f.CreateModelUserTaskShape(0, 7, -3, 0, 0)
	st = f.CreateModelSystemTaskShape(0, 7, -4, 0, 0)
	assert.Equal(t, "Clerk", ut.PersonaReference.Name)
	assert.Equal(t, "Billing", st.PersonaReference.Name)

	// Each shape gets its own copy.
	ut.PersonaReference.Name = "changed"
	assert.Equal(t, "Clerk", f.Settings().UserTaskPersona.Name)

	f.Destroy()
	ut = f.CreateModelUserTaskShape(0, 7, -5, 0, 0)
	assert.Equal(t, "User", ut.PersonaReference.Name)
	assert.Equal(t, "User Task 4", ut.Name, "destroy keeps counters")
}

func TestFactory_Reset(t *testing.T) {
	f := NewFactory(DefaultCatalog())
	f.CreateModelUserTaskShape(0, 0, -1, 0, 0)
	f.SetUserTaskPersona(process.ArtifactReference{ID: 42, Name: "Clerk"})

	f.Reset()

	s := f.CreateModelUserTaskShape(0, 0, -2, 0, 0)
	assert.Equal(t, "User Task 2", s.Name)
	assert.Equal(t, "User", s.PersonaReference.Name)
	assert.Equal(t, Settings{}, f.Settings())
}

func TestFactory_CreateShape(t *testing.T) {
	f := NewFactory(DefaultCatalog())
	kinds := []process.ShapeKind{
		process.ShapeKindMergeNode,
		process.ShapeKindStart,
		process.ShapeKindUserTask,
		process.ShapeKindEnd,
		process.ShapeKindSystemTask,
		process.ShapeKindPreconditionSystemTask,
		process.ShapeKindUserDecision,
		process.ShapeKindSystemDecision,
	}

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			s, err := f.CreateShape(kind, 1, 1, -1, 5, 6)
			require.NoError(t, err)
			assert.Equal(t, kind, s.Kind())
			assert.Equal(t, 5.0, s.X())
			assert.Equal(t, 6.0, s.Y())
		})
	}

	_, err := f.CreateShape(process.ShapeKind(42), 1, 1, -1, 0, 0)
	assert.Error(t, err)
}

func TestCreateClientTypeValueForProcess(t *testing.T) {
	pv := CreateClientTypeValueForProcess(process.ProcessTypeSystemToSystemProcess)

	assert.Equal(t, "ClientType", pv.PropertyName)
	assert.Equal(t, process.PropertyTypeClientType, pv.TypePredefined)
	assert.Equal(t, int64(process.LocalTypeID), pv.TypeID)
	assert.Equal(t, int(process.ProcessTypeSystemToSystemProcess), pv.Value)
}

func TestSinglePropertyBuilders(t *testing.T) {
	tests := []struct {
		name     string
		pv       process.PropertyValue
		propName string
		typ      process.PropertyTypePredefined
		value    any
	}{
		{"label", CreateLabelValue("a"), "Label", process.PropertyTypeLabel, "a"},
		{"description", CreateDescriptionValue("d"), "Description", process.PropertyTypeDescription, "d"},
		{"x", CreateXValue(1), "X", process.PropertyTypeX, 1.0},
		{"y", CreateYValue(2), "Y", process.PropertyTypeY, 2.0},
		{"width", CreateWidthValue(3), "Width", process.PropertyTypeWidth, 3.0},
		{"height", CreateHeightValue(4), "Height", process.PropertyTypeHeight, 4.0},
		{"client type", CreateClientTypeValue(process.ShapeKindEnd), "ClientType", process.PropertyTypeClientType, int(process.ShapeKindEnd)},
		{"objective", CreateObjectiveValue("o"), "ItemLabel", process.PropertyTypeItemLabel, "o"},
		{"image url", CreateAssociatedImageURLValue("u"), "AssociatedImageUrl", process.PropertyTypeAssociatedImageURL, "u"},
		{"image id", CreateImageIDValue("i"), "ImageId", process.PropertyTypeImageID, "i"},
		{"story links", CreateStoryLinksValue(nil), "StoryLinks", process.PropertyTypeStoryLink, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.propName, tt.pv.PropertyName)
			assert.Equal(t, tt.typ, tt.pv.TypePredefined)
			assert.Equal(t, int64(-1), tt.pv.TypeID)
			assert.Equal(t, tt.value, tt.pv.Value)
		})
	}
}

func TestCatalog_Label(t *testing.T) {
	c := mustCatalog(t, language.German, map[string]string{LabelNewUserTask: "Benutzeraufgabe"})

	assert.Equal(t, "Benutzeraufgabe", c.Label(LabelNewUserTask))
	assert.Equal(t, "", c.Label(LabelNewSystemTask))
	assert.Equal(t, language.German, c.Tag())

	var nilCatalog *Catalog
	assert.Equal(t, "", nilCatalog.Label(LabelNewUserTask))
}

func mustCatalog(t *testing.T, tag language.Tag, entries map[string]string) *Catalog {
	t.Helper()
	c, err := NewCatalog(tag, entries)
	require.NoError(t, err)
	return c
}
