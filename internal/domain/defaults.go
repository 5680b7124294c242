package domain

// DefaultSlot names one of the global icon defaults.
type DefaultSlot string

// Default slots. Archive slots apply to closed boards.
const (
	SlotBoard        DefaultSlot = "board"
	SlotNewBoard     DefaultSlot = "new_board"
	SlotExternalLink DefaultSlot = "external_link"
	SlotArchive      DefaultSlot = "archive"
	SlotNewArchive   DefaultSlot = "new_archive"
)

// DefaultSlots lists every slot in stylesheet order.
var DefaultSlots = []DefaultSlot{SlotBoard, SlotNewBoard, SlotExternalLink, SlotArchive, SlotNewArchive}

// Valid reports whether s is a known slot.
func (s DefaultSlot) Valid() bool {
	switch s {
	case SlotBoard, SlotNewBoard, SlotExternalLink, SlotArchive, SlotNewArchive:
		return true
	}
	return false
}

// Defaults maps each slot to a glyph reference. Defaults carry no color.
// Missing keys and empty values both mean "not set".
type Defaults map[DefaultSlot]string

// Get returns the glyph for slot, or "".
func (d Defaults) Get(slot DefaultSlot) string {
	if d == nil {
		return ""
	}
	return d[slot]
}

// AnyOf reports whether any of the given slots is set.
func (d Defaults) AnyOf(slots ...DefaultSlot) bool {
	for _, s := range slots {
		if d.Get(s) != "" {
			return true
		}
	}
	return false
}
