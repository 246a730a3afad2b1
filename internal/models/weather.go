package models

// WeatherRequest carries optional coordinates for a weather fetch.
type WeatherRequest struct {
	Lat *float64 `form:"lat" json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lon *float64 `form:"lon" json:"lon,omitempty" validate:"omitempty,min=-180,max=180"`
}

// WeatherSnapshot is the cached current-weather payload.
type WeatherSnapshot struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	Time          string  `json:"time"`
}
