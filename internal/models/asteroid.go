package models

// Asteroid represents a near-Earth object tracked by the scanner.
// Rows are keyed by the feed's stable numeric identifier; re-sighting the
// same id refreshes the attributes (last-write-wins), never duplicates.
type Asteroid struct {
	ID                   int64   `json:"id" db:"id"`
	Name                 string  `json:"name" db:"name"`
	AbsoluteMagnitude    float64 `json:"absoluteMagnitudeH" db:"absolute_magnitude_h"`
	EstDiameterMinKm     float64 `json:"estimatedDiameterMinKm" db:"estimated_diameter_min_km"`
	EstDiameterMaxKm     float64 `json:"estimatedDiameterMaxKm" db:"estimated_diameter_max_km"`
	PotentiallyHazardous bool    `json:"isPotentiallyHazardousAsteroid" db:"is_potentially_hazardous_asteroid"`
}

// CloseApproach represents a single recorded approach of an asteroid.
// Identity is the composite (NeoReferenceID, CloseApproachDate, OrbitingBody);
// a row is immutable once recorded and a later duplicate is discarded.
type CloseApproach struct {
	NeoReferenceID       int64   `json:"neoReferenceId" db:"neo_reference_id"`
	CloseApproachDate    string  `json:"closeApproachDate" db:"close_approach_date"`
	RelativeVelocityKmph float64 `json:"relativeVelocityKmph" db:"relative_velocity_kmph"`
	Astronomical         float64 `json:"astronomical" db:"astronomical"`
	MissDistanceKm       float64 `json:"missDistanceKm" db:"miss_distance_km"`
	MissDistanceLunar    float64 `json:"missDistanceLunar" db:"miss_distance_lunar"`
	OrbitingBody         string  `json:"orbitingBody" db:"orbiting_body"`
}

// Key returns the composite uniqueness key for the approach
func (c *CloseApproach) Key() ApproachKey {
	return ApproachKey{
		NeoReferenceID:    c.NeoReferenceID,
		CloseApproachDate: c.CloseApproachDate,
		OrbitingBody:      c.OrbitingBody,
	}
}

// ApproachKey is the composite key preventing double-counting when windows
// are re-run or overlap
type ApproachKey struct {
	NeoReferenceID    int64
	CloseApproachDate string
	OrbitingBody      string
}
