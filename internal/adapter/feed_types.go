package adapter

// Raw NeoWs feed payload. Required fields are pointers so a missing field is
// distinguishable from a zero value; the normalizer treats nil as a
// malformed payload instead of substituting a default.

// FeedPayload is the response to a date-windowed feed query
type FeedPayload struct {
	ElementCount     int                    `json:"element_count"`
	NearEarthObjects map[string][]NeoObject `json:"near_earth_objects"`
}

// NeoObject is one asteroid entry nested under a date key
type NeoObject struct {
	ID                 *string             `json:"id"`
	Name               *string             `json:"name"`
	AbsoluteMagnitudeH *float64            `json:"absolute_magnitude_h"`
	EstimatedDiameter  *EstimatedDiameter  `json:"estimated_diameter"`
	IsHazardous        *bool               `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData  []CloseApproachData `json:"close_approach_data"`
}

// EstimatedDiameter holds per-unit diameter estimates
type EstimatedDiameter struct {
	Kilometers *DiameterRange `json:"kilometers"`
}

// DiameterRange is a min/max diameter estimate
type DiameterRange struct {
	EstimatedDiameterMin *float64 `json:"estimated_diameter_min"`
	EstimatedDiameterMax *float64 `json:"estimated_diameter_max"`
}

// CloseApproachData is one recorded approach nested inside an asteroid entry
type CloseApproachData struct {
	CloseApproachDate *string           `json:"close_approach_date"`
	RelativeVelocity  *RelativeVelocity `json:"relative_velocity"`
	MissDistance      *MissDistance     `json:"miss_distance"`
	OrbitingBody      *string           `json:"orbiting_body"`
}

// RelativeVelocity holds velocity readings. The feed serializes these as
// strings, not numbers.
type RelativeVelocity struct {
	KilometersPerHour *string `json:"kilometers_per_hour"`
}

// MissDistance holds miss-distance readings in three units, serialized as
// strings. All three are pass-through fields, never recomputed.
type MissDistance struct {
	Astronomical *string `json:"astronomical"`
	Lunar        *string `json:"lunar"`
	Kilometers   *string `json:"kilometers"`
}
