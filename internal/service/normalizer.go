// Package service contains the ingestion run controller and the pure
// payload-normalization step.
package service

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/neo-scanner/internal/adapter"
	apperrors "github.com/neo-scanner/internal/errors"
	"github.com/neo-scanner/internal/models"
)

// Normalize flattens a nested feed payload into asteroid and close-approach
// record streams. It is a pure function with no I/O.
//
// Asteroids are deduplicated within the payload (the same object may appear
// under several date keys in one window); approaches are deduplicated on the
// composite (id, date, orbiting body) key, discarding the later duplicate.
// A missing or unparseable required field fails the whole payload with a
// malformed-payload error rather than substituting a default.
func Normalize(payload *adapter.FeedPayload) ([]models.Asteroid, []models.CloseApproach, error) {
	if payload == nil || payload.NearEarthObjects == nil {
		return nil, nil, apperrors.NewMalformedPayloadError("near_earth_objects", nil)
	}

	// Walk date keys in sorted order so output is deterministic for a given
	// payload regardless of map iteration order.
	dates := make([]string, 0, len(payload.NearEarthObjects))
	for date := range payload.NearEarthObjects {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var asteroids []models.Asteroid
	var approaches []models.CloseApproach
	seenAsteroids := make(map[int64]bool)
	seenApproaches := make(map[models.ApproachKey]bool)

	for _, date := range dates {
		for i, neo := range payload.NearEarthObjects[date] {
			path := fmt.Sprintf("near_earth_objects[%s][%d]", date, i)

			asteroid, err := extractAsteroid(&neo, path)
			if err != nil {
				return nil, nil, err
			}

			if !seenAsteroids[asteroid.ID] {
				seenAsteroids[asteroid.ID] = true
				asteroids = append(asteroids, asteroid)
			}

			for j, raw := range neo.CloseApproachData {
				approach, err := extractApproach(&raw, asteroid.ID,
					fmt.Sprintf("%s.close_approach_data[%d]", path, j))
				if err != nil {
					return nil, nil, err
				}

				// Sub-day granularity is lost upstream; a second approach to
				// the same body on the same date is a discarded duplicate.
				if seenApproaches[approach.Key()] {
					continue
				}
				seenApproaches[approach.Key()] = true
				approaches = append(approaches, approach)
			}
		}
	}

	return asteroids, approaches, nil
}

// extractAsteroid validates and converts one asteroid entry
func extractAsteroid(neo *adapter.NeoObject, path string) (models.Asteroid, error) {
	var a models.Asteroid

	if neo.ID == nil {
		return a, apperrors.NewMalformedPayloadError(path+".id", nil)
	}
	id, err := strconv.ParseInt(*neo.ID, 10, 64)
	if err != nil {
		return a, apperrors.NewMalformedPayloadError(path+".id", err)
	}

	if neo.Name == nil {
		return a, apperrors.NewMalformedPayloadError(path+".name", nil)
	}
	if neo.AbsoluteMagnitudeH == nil {
		return a, apperrors.NewMalformedPayloadError(path+".absolute_magnitude_h", nil)
	}
	if neo.IsHazardous == nil {
		return a, apperrors.NewMalformedPayloadError(path+".is_potentially_hazardous_asteroid", nil)
	}
	if neo.EstimatedDiameter == nil || neo.EstimatedDiameter.Kilometers == nil {
		return a, apperrors.NewMalformedPayloadError(path+".estimated_diameter.kilometers", nil)
	}

	km := neo.EstimatedDiameter.Kilometers
	if km.EstimatedDiameterMin == nil {
		return a, apperrors.NewMalformedPayloadError(path+".estimated_diameter.kilometers.estimated_diameter_min", nil)
	}
	if km.EstimatedDiameterMax == nil {
		return a, apperrors.NewMalformedPayloadError(path+".estimated_diameter.kilometers.estimated_diameter_max", nil)
	}

	a = models.Asteroid{
		ID:                   id,
		Name:                 *neo.Name,
		AbsoluteMagnitude:    *neo.AbsoluteMagnitudeH,
		EstDiameterMinKm:     *km.EstimatedDiameterMin,
		EstDiameterMaxKm:     *km.EstimatedDiameterMax,
		PotentiallyHazardous: *neo.IsHazardous,
	}
	return a, nil
}

// extractApproach validates and converts one close-approach entry. Distance
// and velocity readings are pass-through fields parsed from the feed's
// string encoding, never recomputed from one another.
func extractApproach(raw *adapter.CloseApproachData, asteroidID int64, path string) (models.CloseApproach, error) {
	var ca models.CloseApproach

	if raw.CloseApproachDate == nil {
		return ca, apperrors.NewMalformedPayloadError(path+".close_approach_date", nil)
	}
	if raw.OrbitingBody == nil {
		return ca, apperrors.NewMalformedPayloadError(path+".orbiting_body", nil)
	}
	if raw.RelativeVelocity == nil || raw.RelativeVelocity.KilometersPerHour == nil {
		return ca, apperrors.NewMalformedPayloadError(path+".relative_velocity.kilometers_per_hour", nil)
	}
	if raw.MissDistance == nil {
		return ca, apperrors.NewMalformedPayloadError(path+".miss_distance", nil)
	}

	velocity, err := parseFloatField(*raw.RelativeVelocity.KilometersPerHour, path+".relative_velocity.kilometers_per_hour")
	if err != nil {
		return ca, err
	}

	md := raw.MissDistance
	if md.Astronomical == nil {
		return ca, apperrors.NewMalformedPayloadError(path+".miss_distance.astronomical", nil)
	}
	if md.Kilometers == nil {
		return ca, apperrors.NewMalformedPayloadError(path+".miss_distance.kilometers", nil)
	}
	if md.Lunar == nil {
		return ca, apperrors.NewMalformedPayloadError(path+".miss_distance.lunar", nil)
	}

	astronomical, err := parseFloatField(*md.Astronomical, path+".miss_distance.astronomical")
	if err != nil {
		return ca, err
	}
	kilometers, err := parseFloatField(*md.Kilometers, path+".miss_distance.kilometers")
	if err != nil {
		return ca, err
	}
	lunar, err := parseFloatField(*md.Lunar, path+".miss_distance.lunar")
	if err != nil {
		return ca, err
	}

	ca = models.CloseApproach{
		NeoReferenceID:       asteroidID,
		CloseApproachDate:    *raw.CloseApproachDate,
		RelativeVelocityKmph: velocity,
		Astronomical:         astronomical,
		MissDistanceKm:       kilometers,
		MissDistanceLunar:    lunar,
		OrbitingBody:         *raw.OrbitingBody,
	}
	return ca, nil
}

func parseFloatField(value, path string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apperrors.NewMalformedPayloadError(path, err)
	}
	return f, nil
}
