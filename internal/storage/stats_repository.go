package storage

import (
	"context"

	apperrors "github.com/neo-scanner/internal/errors"
	"github.com/neo-scanner/internal/models"
)

// StatsRepository serves the read-only analytical queries exposed to the
// dashboard collaborator. It only ever reads the two-table contract.
type StatsRepository struct {
	db *PostgresDB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *PostgresDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Overview returns store-wide aggregates
func (r *StatsRepository) Overview(ctx context.Context) (*models.StatsOverview, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM asteroids),
			(SELECT COUNT(*) FROM close_approach),
			(SELECT COUNT(*) FROM asteroids WHERE is_potentially_hazardous_asteroid),
			COALESCE((SELECT AVG(relative_velocity_kmph) FROM close_approach), 0),
			COALESCE((SELECT MIN(miss_distance_km) FROM close_approach), 0)
	`

	var overview models.StatsOverview
	err := r.db.Pool().QueryRow(ctx, query).Scan(
		&overview.TotalAsteroids,
		&overview.TotalApproaches,
		&overview.HazardousAsteroids,
		&overview.AvgVelocityKmph,
		&overview.MinMissDistanceKm,
	)
	if err != nil {
		return nil, apperrors.NewPersistenceError("stats overview", err)
	}

	return &overview, nil
}

// ClosestApproaches returns the approaches with the smallest miss distance
func (r *StatsRepository) ClosestApproaches(ctx context.Context, limit int) ([]models.NamedApproach, error) {
	query := `
		SELECT ca.neo_reference_id, to_char(ca.close_approach_date, 'YYYY-MM-DD'),
			   ca.relative_velocity_kmph, ca.astronomical, ca.miss_distance_km,
			   ca.miss_distance_lunar, ca.orbiting_body, a.name
		FROM close_approach ca
		JOIN asteroids a ON a.id = ca.neo_reference_id
		ORDER BY ca.miss_distance_km ASC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("closest approaches", err)
	}
	defer rows.Close()

	var approaches []models.NamedApproach
	for rows.Next() {
		var na models.NamedApproach
		if err := rows.Scan(
			&na.NeoReferenceID,
			&na.CloseApproachDate,
			&na.RelativeVelocityKmph,
			&na.Astronomical,
			&na.MissDistanceKm,
			&na.MissDistanceLunar,
			&na.OrbitingBody,
			&na.Name,
		); err != nil {
			return nil, apperrors.NewPersistenceError("scan closest approaches", err)
		}
		approaches = append(approaches, na)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("closest approaches", err)
	}

	return approaches, nil
}

// BrightestAsteroids returns asteroids ordered by absolute magnitude
// (lower magnitude means brighter)
func (r *StatsRepository) BrightestAsteroids(ctx context.Context, limit int) ([]models.Asteroid, error) {
	query := `
		SELECT id, name, absolute_magnitude_h,
			   estimated_diameter_min_km, estimated_diameter_max_km,
			   is_potentially_hazardous_asteroid
		FROM asteroids
		ORDER BY absolute_magnitude_h ASC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("brightest asteroids", err)
	}
	defer rows.Close()

	var asteroids []models.Asteroid
	for rows.Next() {
		var a models.Asteroid
		if err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.AbsoluteMagnitude,
			&a.EstDiameterMinKm,
			&a.EstDiameterMaxKm,
			&a.PotentiallyHazardous,
		); err != nil {
			return nil, apperrors.NewPersistenceError("scan brightest asteroids", err)
		}
		asteroids = append(asteroids, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("brightest asteroids", err)
	}

	return asteroids, nil
}
