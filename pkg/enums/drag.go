package enums

// DragPhase is the state of the drag-reorder interaction.
type DragPhase string

const (
	DragPhaseIdle      DragPhase = "idle"
	DragPhaseDragging  DragPhase = "dragging"
	DragPhaseDropped   DragPhase = "dropped"
	DragPhaseCancelled DragPhase = "cancelled"
)

// String implements fmt.Stringer.
func (p DragPhase) String() string {
	return string(p)
}

// IsTerminal reports whether the phase ends a gesture.
func (p DragPhase) IsTerminal() bool {
	return p == DragPhaseDropped || p == DragPhaseCancelled
}
