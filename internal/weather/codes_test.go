package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateCodeKnownCodes(t *testing.T) {
	cases := []struct {
		code int
		want CodeInfo
	}{
		{0, CodeInfo{ConditionClear, "Clear sky", "01d"}},
		{1, CodeInfo{ConditionClear, "Mainly clear", "02d"}},
		{2, CodeInfo{ConditionClouds, "Partly cloudy", "03d"}},
		{3, CodeInfo{ConditionClouds, "Overcast", "04d"}},
		{45, CodeInfo{ConditionFog, "Foggy", "50d"}},
		{48, CodeInfo{ConditionFog, "Depositing rime fog", "50d"}},
		{51, CodeInfo{ConditionDrizzle, "Light drizzle", "09d"}},
		{53, CodeInfo{ConditionDrizzle, "Moderate drizzle", "09d"}},
		{55, CodeInfo{ConditionDrizzle, "Dense drizzle", "09d"}},
		{61, CodeInfo{ConditionRain, "Slight rain", "10d"}},
		{63, CodeInfo{ConditionRain, "Moderate rain", "10d"}},
		{65, CodeInfo{ConditionRain, "Heavy rain", "10d"}},
		{80, CodeInfo{ConditionRain, "Slight rain showers", "09d"}},
		{81, CodeInfo{ConditionRain, "Moderate rain showers", "09d"}},
		{82, CodeInfo{ConditionRain, "Violent rain showers", "09d"}},
		{95, CodeInfo{ConditionThunderstorm, "Thunderstorm", "11d"}},
		{96, CodeInfo{ConditionThunderstorm, "Thunderstorm with slight hail", "11d"}},
		{99, CodeInfo{ConditionThunderstorm, "Thunderstorm with heavy hail", "11d"}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, TranslateCode(tc.code), "code %d", tc.code)
	}
}

func TestTranslateCodeUnknownCodes(t *testing.T) {
	want := CodeInfo{ConditionUnknown, "Unknown conditions", "01d"}

	for _, code := range []int{-1, -100, 4, 44, 50, 66, 79, 94, 100, 1000} {
		assert.Equal(t, want, TranslateCode(code), "code %d", code)
	}
}
