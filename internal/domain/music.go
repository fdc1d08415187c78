package domain

// BoostMax is the upper clamp applied to Music.UserBoost.
const BoostMax = 0.9

// Music is a single audio file, identified by its absolute path.
type Music struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path"`

	Title string `json:"title"`

	// AvgDB is the integrated loudness in LUFS, when measured.
	AvgDB *float64 `json:"avg_db,omitempty"`

	// Scoring fields. Opaque: the core reads and writes them verbatim and
	// runs no algorithm over them beyond the clamping rules below.
	BaseBias  float64 `json:"base_bias"`
	UserBoost float64 `json:"user_boost"`
	Fatigue   float64 `json:"fatigue"`
	Diversity float64 `json:"diversity"`
}

// ClampBoost keeps UserBoost within [0, BoostMax].
func (m *Music) ClampBoost() {
	if m.UserBoost > BoostMax {
		m.UserBoost = BoostMax
	}
	if m.UserBoost < 0 {
		m.UserBoost = 0
	}
}

// ApplyFatigue adds delta to Fatigue without clamping, matching the
// source behavior: fatigue is unbounded in normal operation and only
// zeroed by ResetLogits.
func (m *Music) ApplyFatigue(delta float64) {
	m.Fatigue += delta
}

// ApplyBoost adds delta to UserBoost and clamps to [0, BoostMax].
func (m *Music) ApplyBoost(delta float64) {
	m.UserBoost += delta
	m.ClampBoost()
}

// ResetLogits zeroes Fatigue, UserBoost and Diversity. BaseBias is left
// untouched.
func (m *Music) ResetLogits() {
	m.Fatigue = 0
	m.UserBoost = 0
	m.Diversity = 0
}
