package roomengine

// TeamStats tracks per-team commitment counters, kept only in process
// memory per spec.md §9 ("transient state vs persisted state").
type TeamStats struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Timeout    int `json:"timeout"`
	SpeedBonus int `json:"speed_bonus"`
}

func newTeamStats() map[string]*TeamStats {
	return map[string]*TeamStats{
		"A": {},
		"B": {},
	}
}
