package vdom

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchSetText     PatchOp = 0x01 // Update text content
	PatchSetAttr     PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr  PatchOp = 0x03 // Remove attribute
	PatchInsertNode  PatchOp = 0x04 // Insert new node
	PatchRemoveNode  PatchOp = 0x05 // Remove node
	PatchMoveNode    PatchOp = 0x06 // Move node to new position
	PatchReplaceNode PatchOp = 0x07 // Replace node entirely
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchMoveNode:
		return "MoveNode"
	case PatchReplaceNode:
		return "ReplaceNode"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the op by name.
func (op PatchOp) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// Patch is a single host tree operation, as applied by a commit.
type Patch struct {
	Op       PatchOp `json:"op"`
	HID      string  `json:"hid"`              // Target host node
	Key      string  `json:"key,omitempty"`    // Attribute key (for SetAttr/RemoveAttr)
	Value    string  `json:"value,omitempty"`  // Text, attribute value or inserted tag
	Index    int     `json:"index,omitempty"`  // Insert position
	ParentID string  `json:"parent,omitempty"` // Parent for InsertNode/MoveNode/RemoveNode
}
