package domain

// Collection is a named user playlist, the root of the graph fragment a
// user operates on.
type Collection struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name"`
	AvgDB *float64 `json:"avg_db,omitempty"`

	// Exclude holds Music references the user has hidden from this
	// Collection without deleting them.
	Exclude []Music `json:"exclude"`
}

// Unstar appends music to Exclude. No dedup check, matching the source.
func (c *Collection) Unstar(music Music) {
	c.Exclude = append(c.Exclude, music)
}

// RmExclude removes every Music in Exclude whose Path matches music.Path.
// Removal only: does not re-add the removed entry. A prior variant of
// this operation removed then re-added the same music; that was a bug.
func (c *Collection) RmExclude(music Music) {
	kept := c.Exclude[:0]
	for _, m := range c.Exclude {
		if m.Path != music.Path {
			kept = append(kept, m)
		}
	}
	c.Exclude = kept
}
