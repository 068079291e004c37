package model

// Lighting conditions affecting accuracy.
type Lighting string

const (
	LightingBright Lighting = "bright"
	LightingNormal Lighting = "normal"
	LightingDim    Lighting = "dim"
	LightingDark   Lighting = "dark"
)

// Weather conditions affecting accuracy and spawning.
type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherFog   Weather = "fog"
	WeatherStorm Weather = "storm"
)

// TimeOfDay is used by condition-gated spawning.
type TimeOfDay string

const (
	TimeDawn  TimeOfDay = "dawn"
	TimeDay   TimeOfDay = "day"
	TimeDusk  TimeOfDay = "dusk"
	TimeNight TimeOfDay = "night"
)

var lightingModifiers = map[Lighting]int{
	LightingBright: 10,
	LightingNormal: 0,
	LightingDim:    -10,
	LightingDark:   -20,
}

var weatherModifiers = map[Weather]int{
	WeatherClear: 0,
	WeatherRain:  -5,
	WeatherFog:   -15,
	WeatherStorm: -10,
}

// Environment — условия боя. Unknown values contribute 0.
type Environment struct {
	Lighting  Lighting
	Weather   Weather
	TimeOfDay TimeOfDay
}

// AccuracyModifier returns lighting + weather modifier in percentage points.
func (e Environment) AccuracyModifier() int {
	return lightingModifiers[e.Lighting] + weatherModifiers[e.Weather]
}
