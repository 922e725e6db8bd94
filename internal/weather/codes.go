package weather

// CodeInfo describes a WMO weather code: the normalized condition, a short
// human-readable description, and an icon identifier.
type CodeInfo struct {
	Main        Condition `json:"main"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// unknownCode is returned for any code outside the known table.
var unknownCode = CodeInfo{
	Main:        ConditionUnknown,
	Description: "Unknown conditions",
	Icon:        "01d",
}

// weatherCodes maps the WMO interpretation codes reported by Open-Meteo to
// normalized conditions. Only the codes the upstream actually emits for this
// region are listed.
var weatherCodes = map[int]CodeInfo{
	0:  {ConditionClear, "Clear sky", "01d"},
	1:  {ConditionClear, "Mainly clear", "02d"},
	2:  {ConditionClouds, "Partly cloudy", "03d"},
	3:  {ConditionClouds, "Overcast", "04d"},
	45: {ConditionFog, "Foggy", "50d"},
	48: {ConditionFog, "Depositing rime fog", "50d"},
	51: {ConditionDrizzle, "Light drizzle", "09d"},
	53: {ConditionDrizzle, "Moderate drizzle", "09d"},
	55: {ConditionDrizzle, "Dense drizzle", "09d"},
	61: {ConditionRain, "Slight rain", "10d"},
	63: {ConditionRain, "Moderate rain", "10d"},
	65: {ConditionRain, "Heavy rain", "10d"},
	80: {ConditionRain, "Slight rain showers", "09d"},
	81: {ConditionRain, "Moderate rain showers", "09d"},
	82: {ConditionRain, "Violent rain showers", "09d"},
	95: {ConditionThunderstorm, "Thunderstorm", "11d"},
	96: {ConditionThunderstorm, "Thunderstorm with slight hail", "11d"},
	99: {ConditionThunderstorm, "Thunderstorm with heavy hail", "11d"},
}

// TranslateCode maps a numeric weather code to its condition descriptor.
// Total over all integers: unknown codes yield the Unknown descriptor.
// This function never fails.
func TranslateCode(code int) CodeInfo {
	if info, ok := weatherCodes[code]; ok {
		return info
	}
	return unknownCode
}
