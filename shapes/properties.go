package shapes

import "github.com/meikuraledutech/process"

func propertyValue(name string, typ process.PropertyTypePredefined, v any) process.PropertyValue {
	return process.PropertyValue{
		PropertyName:   name,
		TypePredefined: typ,
		TypeID:         process.LocalTypeID,
		Value:          v,
	}
}

func CreateLabelValue(v string) process.PropertyValue {
	return propertyValue("Label", process.PropertyTypeLabel, v)
}

func CreateDescriptionValue(v string) process.PropertyValue {
	return propertyValue("Description", process.PropertyTypeDescription, v)
}

func CreateXValue(v float64) process.PropertyValue {
	return propertyValue("X", process.PropertyTypeX, v)
}

func CreateYValue(v float64) process.PropertyValue {
	return propertyValue("Y", process.PropertyTypeY, v)
}

func CreateWidthValue(v float64) process.PropertyValue {
	return propertyValue("Width", process.PropertyTypeWidth, v)
}

func CreateHeightValue(v float64) process.PropertyValue {
	return propertyValue("Height", process.PropertyTypeHeight, v)
}

// CreateClientTypeValue tags a shape with its kind.
func CreateClientTypeValue(kind process.ShapeKind) process.PropertyValue {
	return propertyValue("ClientType", process.PropertyTypeClientType, int(kind))
}

// CreateObjectiveValue is the user task objective, persisted as ItemLabel.
func CreateObjectiveValue(v string) process.PropertyValue {
	return propertyValue("ItemLabel", process.PropertyTypeItemLabel, v)
}

func CreateAssociatedImageURLValue(v string) process.PropertyValue {
	return propertyValue("AssociatedImageUrl", process.PropertyTypeAssociatedImageURL, v)
}

func CreateImageIDValue(v string) process.PropertyValue {
	return propertyValue("ImageId", process.PropertyTypeImageID, v)
}

// CreateStoryLinksValue holds the story links of a task; nil until a story is generated.
func CreateStoryLinksValue(v any) process.PropertyValue {
	return propertyValue("StoryLinks", process.PropertyTypeStoryLink, v)
}

// CreateClientTypeValueForProcess tags the whole diagram, e.g. as
// user-to-system or system-to-system.
func CreateClientTypeValueForProcess(t process.ProcessType) process.PropertyValue {
	return propertyValue("ClientType", process.PropertyTypeClientType, int(t))
}

// geometry is shared by every shape kind.
func geometry(label, description string, x, y, width, height float64, kind process.ShapeKind) map[string]process.PropertyValue {
	return map[string]process.PropertyValue{
		process.KeyLabel:       CreateLabelValue(label),
		process.KeyDescription: CreateDescriptionValue(description),
		process.KeyX:           CreateXValue(x),
		process.KeyY:           CreateYValue(y),
		process.KeyWidth:       CreateWidthValue(width),
		process.KeyHeight:      CreateHeightValue(height),
		process.KeyClientType:  CreateClientTypeValue(kind),
	}
}

// CreatePropertyValuesForUserTask builds the property bag of a user task.
func CreatePropertyValuesForUserTask(label, description, objective string, x, y float64) map[string]process.PropertyValue {
	pv := geometry(label, description, x, y, UserTaskWidth, UserTaskHeight, process.ShapeKindUserTask)
	pv[process.KeyObjective] = CreateObjectiveValue(objective)
	pv[process.KeyStoryLinks] = CreateStoryLinksValue(nil)
	return pv
}

// CreatePropertyValuesForSystemTask builds the property bag of a system task.
func CreatePropertyValuesForSystemTask(label, description, imageURL, imageID string, x, y float64) map[string]process.PropertyValue {
	pv := geometry(label, description, x, y, SystemTaskWidth, SystemTaskHeight, process.ShapeKindSystemTask)
	pv[process.KeyAssociatedImageURL] = CreateAssociatedImageURLValue(imageURL)
	pv[process.KeyImageID] = CreateImageIDValue(imageID)
	pv[process.KeyStoryLinks] = CreateStoryLinksValue(nil)
	return pv
}

// CreatePropertyValuesForPreconditionSystemTask builds the bag of the
// system task that precedes the first user task.
func CreatePropertyValuesForPreconditionSystemTask(label, description string, x, y float64) map[string]process.PropertyValue {
	pv := geometry(label, description, x, y, SystemTaskWidth, SystemTaskHeight, process.ShapeKindPreconditionSystemTask)
	pv[process.KeyAssociatedImageURL] = CreateAssociatedImageURLValue("")
	pv[process.KeyImageID] = CreateImageIDValue("")
	pv[process.KeyStoryLinks] = CreateStoryLinksValue(nil)
	return pv
}

func CreatePropertyValuesForUserDecision(label, description string, x, y float64) map[string]process.PropertyValue {
	return geometry(label, description, x, y, DecisionWidth, DecisionHeight, process.ShapeKindUserDecision)
}

func CreatePropertyValuesForSystemDecision(label, description string, x, y float64) map[string]process.PropertyValue {
	return geometry(label, description, x, y, DecisionWidth, DecisionHeight, process.ShapeKindSystemDecision)
}

func CreatePropertyValuesForMergeNode(label string, x, y float64) map[string]process.PropertyValue {
	return geometry(label, "", x, y, MergeNodeWidth, MergeNodeHeight, process.ShapeKindMergeNode)
}

func CreatePropertyValuesForStart(label string, x, y float64) map[string]process.PropertyValue {
	return geometry(label, "", x, y, TerminalWidth, TerminalHeight, process.ShapeKindStart)
}

func CreatePropertyValuesForEnd(label string, x, y float64) map[string]process.PropertyValue {
	return geometry(label, "", x, y, TerminalWidth, TerminalHeight, process.ShapeKindEnd)
}
