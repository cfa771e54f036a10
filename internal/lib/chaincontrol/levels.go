package chaincontrol

import "strings"

// ChainLevel is one of the four chain-control severities
type ChainLevel struct {
	Code        string `json:"code"`
	Level       int    `json:"level"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	LevelNone = ChainLevel{
		Code:        "NONE",
		Level:       0,
		Name:        "No Restrictions",
		Description: "No chain requirements in effect",
	}
	LevelR1 = ChainLevel{
		Code:        "R1",
		Level:       1,
		Name:        "R1 - Chains Required",
		Description: "Chains required on drive axle; snow tires allowed on other vehicles",
	}
	LevelR2 = ChainLevel{
		Code:        "R2",
		Level:       2,
		Name:        "R2 - Chains Required",
		Description: "Chains required on all vehicles except 4WD/AWD with snow tires",
	}
	LevelR3 = ChainLevel{
		Code:        "R3",
		Level:       3,
		Name:        "R3 - Road Closed",
		Description: "Road closed to all vehicles, no exceptions",
	}
)

// Levels returns every chain level ordered by ascending severity
func Levels() []ChainLevel {
	return []ChainLevel{LevelNone, LevelR1, LevelR2, LevelR3}
}

// ParseLevel resolves a level code such as "R2" or "r-2". Unknown codes
// resolve to LevelNone with ok=false.
func ParseLevel(code string) (ChainLevel, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
	for _, level := range Levels() {
		if level.Code == normalized {
			return level, true
		}
	}
	return LevelNone, false
}

// IsRestricted reports whether the level imposes any requirement
func (l ChainLevel) IsRestricted() bool {
	return l.Level > 0
}

// IsClosure reports whether the level closes the road
func (l ChainLevel) IsClosure() bool {
	return l.Level >= LevelR3.Level
}

func (l ChainLevel) String() string {
	return l.Code
}
