package chaincontrol

import "strings"

// Weather API condition vocabulary matched by the rules
const (
	ConditionSnow         = "Snow"
	ConditionRain         = "Rain"
	ConditionThunderstorm = "Thunderstorm"
	ConditionTornado      = "Tornado"
	ConditionHurricane    = "Hurricane"
)

// observation is the normalized input every rule predicate sees
type observation struct {
	condition   string
	description string // lowercased
	temp        float64
	windSpeed   float64
	elevation   int
}

func (o observation) snow() bool {
	return o.condition == ConditionSnow
}

func (o observation) mentions(word string) bool {
	return strings.Contains(o.description, word)
}

type chainRule struct {
	name  string
	level ChainLevel
	match func(o observation) bool
}

// chainRules is evaluated top to bottom and the first match wins. Rules are
// grouped by level, most severe first, because the predicates overlap.
var chainRules = []chainRule{
	{"blizzard", LevelR3, func(o observation) bool { return o.mentions("blizzard") }},
	{"heavy snow with high wind", LevelR3, func(o observation) bool {
		return o.snow() && o.mentions("heavy") && o.windSpeed > 40
	}},
	{"high elevation thunderstorm", LevelR3, func(o observation) bool {
		return o.condition == ConditionThunderstorm && o.elevation > 5000
	}},
	{"severe storm", LevelR3, func(o observation) bool {
		return o.condition == ConditionTornado || o.condition == ConditionHurricane
	}},

	{"heavy snow", LevelR2, func(o observation) bool { return o.snow() && o.mentions("heavy") }},
	{"moderate snow with wind", LevelR2, func(o observation) bool {
		return o.snow() && o.mentions("moderate") && o.windSpeed > 25
	}},
	{"cold snow", LevelR2, func(o observation) bool { return o.snow() && o.temp <= 20 }},
	{"ice", LevelR2, func(o observation) bool { return o.mentions("ice") || o.mentions("freezing") }},

	{"snow at freezing", LevelR1, func(o observation) bool { return o.snow() && o.temp <= 32 }},
	{"freezing rain", LevelR1, func(o observation) bool { return o.condition == ConditionRain && o.temp <= 34 }},
	{"sleet", LevelR1, func(o observation) bool { return o.mentions("sleet") }},
}

// DetermineChainRequirement maps current weather at a pass to a chain level.
// A nil snapshot means no data and yields LevelNone.
func DetermineChainRequirement(weather *WeatherSnapshot, elevationFeet int) ChainLevel {
	level, _ := classify(weather, elevationFeet)
	return level
}

// classify also returns the name of the rule that fired, "" for none
func classify(weather *WeatherSnapshot, elevationFeet int) (ChainLevel, string) {
	if weather == nil {
		return LevelNone, ""
	}

	obs := observation{
		condition:   weather.Condition,
		description: strings.ToLower(weather.Description),
		temp:        weather.Temp,
		windSpeed:   weather.WindSpeed,
		elevation:   elevationFeet,
	}

	for _, rule := range chainRules {
		if rule.match(obs) {
			return rule.level, rule.name
		}
	}
	return LevelNone, ""
}
