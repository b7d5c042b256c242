package models

type AirQuality struct {
	Overall float64 `json:"overall"`
	PM25    float64 `json:"pm25"`
	PM10    float64 `json:"pm10"`
	Level   string  `json:"level"`
}

type UVIndex struct {
	Value float64 `json:"value"`
	Level string  `json:"level"`
}

type SunTimes struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

type WeatherForecast struct {
	Date          string  `json:"date"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Condition     string  `json:"condition"`
	Precipitation float64 `json:"precipitation"`
}

// WeatherData is a point-in-time snapshot for one location. It has no id.
type WeatherData struct {
	Location    string            `json:"location"`
	Temperature float64           `json:"temperature"`
	Humidity    float64           `json:"humidity"`
	WindSpeed   float64           `json:"windSpeed"`
	Visibility  float64           `json:"visibility"`
	Condition   string            `json:"condition"`
	Alerts      []string          `json:"alerts"`
	Forecast    []WeatherForecast `json:"forecast"`
	AQI         *AirQuality       `json:"aqi,omitempty"`
	UVIndex     *UVIndex          `json:"uvIndex,omitempty"`
	SunTimes    *SunTimes         `json:"sunTimes,omitempty"`
}

// DefaultWeather is the built-in snapshot shown when the weather endpoint
// cannot be reached.
func DefaultWeather(location string) WeatherData {
	return WeatherData{
		Location:    location,
		Temperature: 28,
		Humidity:    65,
		WindSpeed:   15,
		Visibility:  8,
		Condition:   "Partly Cloudy",
		Alerts:      []string{},
		Forecast:    []WeatherForecast{},
		AQI:         &AirQuality{Overall: 120, PM25: 55, PM10: 105, Level: "Moderate"},
		UVIndex:     &UVIndex{Value: 7, Level: "High"},
		SunTimes:    &SunTimes{Sunrise: "06:30 AM", Sunset: "06:15 PM"},
	}
}

// Locations are the preset cities offered by the weather view.
var Locations = []string{
	"Delhi", "Mumbai", "Chennai", "Kolkata", "Bangalore", "Hyderabad",
	"Ahmedabad", "Pune", "Jaipur", "Lucknow",
}
