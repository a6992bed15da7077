package document

// Action is the mutation a document transition performs.
type Action uint8

const (
	ActionCreate Action = iota
	ActionReplace
	ActionDelete
)

// String returns the wire value of the action.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionReplace:
		return "replace"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseAction maps a raw $action value to an Action.
// ok is false for anything but the three wire strings.
func ParseAction(v any) (a Action, ok bool) {
	s, isString := v.(string)
	if !isString {
		return 0, false
	}

	switch s {
	case "create":
		return ActionCreate, true
	case "replace":
		return ActionReplace, true
	case "delete":
		return ActionDelete, true
	default:
		return 0, false
	}
}
