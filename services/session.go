package services

import "fmt"

// EntryKey identifies one (room, activity) pair. Activity is Activity.Key().
type EntryKey struct {
	Room     string
	Activity string
}

// Session is the selection state collected by the shell: which rooms are in
// the intervention, which activities are enabled per room with the inputs
// last saved for them, and the budget reduction. The core only reads it.
type Session struct {
	Rooms            map[string]bool
	Entries          map[EntryKey]CostInput
	ReductionPercent float64
}

// NewSession starts a session with the rooms the survey marks as selected.
func NewSession(ext Extraction) *Session {
	s := &Session{
		Rooms:   make(map[string]bool),
		Entries: make(map[EntryKey]CostInput),
	}
	for _, room := range ext.SelectableRooms() {
		if DefaultSelected(room) {
			s.Rooms[room] = true
		}
	}
	return s
}

// SelectRoom marks a room as part of the intervention, or removes it.
// Enabled activities of a deselected room are kept but no longer counted.
func (s *Session) SelectRoom(room string, selected bool) {
	if selected {
		s.Rooms[room] = true
		return
	}
	delete(s.Rooms, room)
}

// Enable turns an activity on for a room with zero inputs. Enabling an
// already enabled activity keeps its saved inputs.
func (s *Session) Enable(room, activity string) {
	key := EntryKey{Room: room, Activity: activity}
	if _, ok := s.Entries[key]; !ok {
		s.Entries[key] = CostInput{}
	}
}

// Save enables the activity and overwrites its inputs.
func (s *Session) Save(room, activity string, in CostInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	s.Entries[EntryKey{Room: room, Activity: activity}] = in
	return nil
}

// Disable turns an activity off and discards its inputs.
func (s *Session) Disable(room, activity string) {
	delete(s.Entries, EntryKey{Room: room, Activity: activity})
}

// Enabled reports whether the activity is on for the room.
func (s *Session) Enabled(room, activity string) bool {
	_, ok := s.Entries[EntryKey{Room: room, Activity: activity}]
	return ok
}

// SelectedRooms returns the selected rooms among the extraction's selectable
// rooms, in export order.
func (s *Session) SelectedRooms(ext Extraction) []string {
	var out []string
	for _, room := range ext.SelectableRooms() {
		if s.Rooms[room] {
			out = append(out, room)
		}
	}
	return out
}

// EvaluateSession evaluates every enabled activity of every selected room,
// rooms in export order and activities in catalog order. Entries whose
// activity is no longer in the catalog are skipped.
func EvaluateSession(c *Catalog, ext Extraction, s *Session) ([]CostEntry, error) {
	var entries []CostEntry
	for _, room := range s.SelectedRooms(ext) {
		props := ext.Rooms[room]
		for _, a := range c.All() {
			in, ok := s.Entries[EntryKey{Room: room, Activity: a.Key()}]
			if !ok {
				continue
			}
			res, err := Evaluate(a, props, in)
			if err != nil {
				return nil, fmt.Errorf("room %q: %w", room, err)
			}
			entries = append(entries, CostEntry{
				Room:               room,
				Activity:           a.Key(),
				Quantity:           res.Quantity,
				UnitPrice:          a.UnitPrice,
				Height:             res.Height,
				Cost:               res.Cost,
				MissingMeasurement: res.MissingMeasurement,
			})
		}
	}
	return entries, nil
}
