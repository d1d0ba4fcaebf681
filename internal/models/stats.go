package models

// StatsOverview summarizes the collected store for the read-only API
type StatsOverview struct {
	TotalAsteroids     int     `json:"totalAsteroids"`
	TotalApproaches    int     `json:"totalApproaches"`
	HazardousAsteroids int     `json:"hazardousAsteroids"`
	AvgVelocityKmph    float64 `json:"avgVelocityKmph"`
	MinMissDistanceKm  float64 `json:"minMissDistanceKm"`
}

// NamedApproach is a close approach joined with its asteroid's name
type NamedApproach struct {
	CloseApproach
	Name string `json:"name"`
}
