package process

// ShapeKind is the client type of a shape. Merge nodes carry no client type
// of their own and are persisted as the None value (0).
type ShapeKind int

const (
	ShapeKindMergeNode ShapeKind = iota
	ShapeKindStart
	ShapeKindUserTask
	ShapeKindEnd
	ShapeKindSystemTask
	ShapeKindPreconditionSystemTask
	ShapeKindUserDecision
	ShapeKindSystemDecision
)

var shapeKindNames = map[ShapeKind]string{
	ShapeKindMergeNode:              "MergeNode",
	ShapeKindStart:                  "Start",
	ShapeKindUserTask:               "UserTask",
	ShapeKindEnd:                    "End",
	ShapeKindSystemTask:             "SystemTask",
	ShapeKindPreconditionSystemTask: "PreconditionSystemTask",
	ShapeKindUserDecision:           "UserDecision",
	ShapeKindSystemDecision:         "SystemDecision",
}

func (k ShapeKind) String() string {
	if name, ok := shapeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseShapeKind maps a name produced by String back to its kind.
func ParseShapeKind(name string) (ShapeKind, bool) {
	for k, n := range shapeKindNames {
		if n == name {
			return k, true
		}
	}
	return ShapeKindMergeNode, false
}

// IsDecision reports whether shapes of this kind fan out into branches.
func (k ShapeKind) IsDecision() bool {
	return k == ShapeKindUserDecision || k == ShapeKindSystemDecision
}

// IsTask reports whether shapes of this kind are user or system tasks.
func (k ShapeKind) IsTask() bool {
	switch k {
	case ShapeKindUserTask, ShapeKindSystemTask, ShapeKindPreconditionSystemTask:
		return true
	}
	return false
}

// ProcessType tags a whole diagram.
type ProcessType int

const (
	ProcessTypeNone ProcessType = iota
	ProcessTypeBusinessProcess
	ProcessTypeUserToSystemProcess
	ProcessTypeSystemToSystemProcess
)

func (t ProcessType) String() string {
	switch t {
	case ProcessTypeBusinessProcess:
		return "BusinessProcess"
	case ProcessTypeUserToSystemProcess:
		return "UserToSystemProcess"
	case ProcessTypeSystemToSystemProcess:
		return "SystemToSystemProcess"
	}
	return "None"
}
