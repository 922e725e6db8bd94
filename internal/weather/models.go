package weather

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "Unknown"
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionFog          Condition = "Fog"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionRain         Condition = "Rain"
	ConditionThunderstorm Condition = "Thunderstorm"
)

// Snapshot is one immutable point-in-time weather reading, fully normalized
// for display. It is only ever produced from a complete upstream response;
// a partially filled Snapshot must never be constructed.
type Snapshot struct {
	Temperature  int       `json:"temperature"` // °C
	Condition    Condition `json:"condition"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Humidity     int       `json:"humidity"` // percent
	WindSpeedKmh int       `json:"windSpeedKmh"`
	VisibilityKm int       `json:"visibilityKm"`
	PressureHpa  int       `json:"pressureHpa"`
	FeelsLike    int       `json:"feelsLike"` // °C
	Icon         string    `json:"icon"`
}

// ForecastDay is one day of a multi-day forecast. A forecast is a
// chronologically ordered slice of these, typically seven entries.
type ForecastDay struct {
	Date         string    `json:"date"` // ISO date, e.g. 2026-08-31
	TempMin      int       `json:"tempMin"`
	TempMax      int       `json:"tempMax"`
	Humidity     int       `json:"humidity"`
	WindSpeedKmh int       `json:"windSpeedKmh"`
	RainfallMm   int       `json:"rainfallMm"`
	Condition    Condition `json:"condition"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
}

// Location is a named coordinate the service tracks, e.g. for scheduled
// refreshes. Name is a display label only.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}
