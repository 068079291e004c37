package spawn

import (
	"slices"

	"github.com/udisondev/wasteland/internal/model"
)

// Conditions describe the world at the moment of a spawn attempt.
type Conditions struct {
	TimeOfDay   model.TimeOfDay `json:"time_of_day,omitempty"`
	Weather     model.Weather   `json:"weather,omitempty"`
	PlayerLevel int             `json:"player_level,omitempty"`
}

// Requirements gate a spawn. Empty fields match anything; all set fields must match.
type Requirements struct {
	TimeOfDay   []model.TimeOfDay
	Weather     []model.Weather
	PlayerLevel *model.Range
}

// Match reports whether c satisfies every set requirement.
func (r Requirements) Match(c Conditions) bool {
	if len(r.TimeOfDay) > 0 && !slices.Contains(r.TimeOfDay, c.TimeOfDay) {
		return false
	}
	if len(r.Weather) > 0 && !slices.Contains(r.Weather, c.Weather) {
		return false
	}
	if r.PlayerLevel != nil && !r.PlayerLevel.Contains(c.PlayerLevel) {
		return false
	}
	return true
}
