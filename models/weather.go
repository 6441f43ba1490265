package models

import (
	"time"
)

// WeatherReading represents the current conditions for a city as returned by a provider
type WeatherReading struct {
	Provider    string    `json:"provider"`
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`  // percentage
	Condition   string    `json:"condition"` // short text description
	Units       string    `json:"units"`     // units tag the reading was requested in
	FetchedAt   time.Time `json:"fetchedAt"`
}
