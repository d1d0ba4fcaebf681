package storage

import (
	"context"

	apperrors "github.com/neo-scanner/internal/errors"
	"github.com/neo-scanner/internal/models"
)

// RecordRepository persists asteroid and close-approach records
type RecordRepository struct {
	db *PostgresDB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *PostgresDB) *RecordRepository {
	return &RecordRepository{db: db}
}

const upsertAsteroidQuery = `
	INSERT INTO asteroids (
		id, name, absolute_magnitude_h,
		estimated_diameter_min_km, estimated_diameter_max_km,
		is_potentially_hazardous_asteroid
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		absolute_magnitude_h = EXCLUDED.absolute_magnitude_h,
		estimated_diameter_min_km = EXCLUDED.estimated_diameter_min_km,
		estimated_diameter_max_km = EXCLUDED.estimated_diameter_max_km,
		is_potentially_hazardous_asteroid = EXCLUDED.is_potentially_hazardous_asteroid,
		updated_at = now()
`

const insertApproachQuery = `
	INSERT INTO close_approach (
		neo_reference_id, close_approach_date, relative_velocity_kmph,
		astronomical, miss_distance_km, miss_distance_lunar, orbiting_body
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (neo_reference_id, close_approach_date, orbiting_body) DO NOTHING
`

// PersistWindow commits all rows for one window as a single transaction:
// asteroid upserts first so every approach references a committed asteroid,
// then approach inserts. Duplicate approach keys are absorbed, which makes
// re-running an already-completed window a no-op. Returns the number of
// newly inserted close-approach rows.
func (r *RecordRepository) PersistWindow(ctx context.Context, asteroids []models.Asteroid, approaches []models.CloseApproach) (int, error) {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return 0, apperrors.NewPersistenceError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // nolint:errcheck // no-op after commit
	}()

	for _, a := range asteroids {
		_, err := tx.Exec(ctx, upsertAsteroidQuery,
			a.ID,
			a.Name,
			a.AbsoluteMagnitude,
			a.EstDiameterMinKm,
			a.EstDiameterMaxKm,
			a.PotentiallyHazardous,
		)
		if err != nil {
			return 0, apperrors.NewPersistenceError("upsert asteroid", err)
		}
	}

	inserted := 0
	for _, ca := range approaches {
		tag, err := tx.Exec(ctx, insertApproachQuery,
			ca.NeoReferenceID,
			ca.CloseApproachDate,
			ca.RelativeVelocityKmph,
			ca.Astronomical,
			ca.MissDistanceKm,
			ca.MissDistanceLunar,
			ca.OrbitingBody,
		)
		if err != nil {
			return 0, apperrors.NewPersistenceError("insert close approach", err)
		}
		// RowsAffected is 0 when the composite key already exists
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperrors.NewPersistenceError("commit transaction", err)
	}

	return inserted, nil
}

// CountAsteroids returns the number of distinct asteroids in the store.
// The run controller checks this against the collection target.
func (r *RecordRepository) CountAsteroids(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM asteroids`).Scan(&count)
	if err != nil {
		return 0, apperrors.NewPersistenceError("count asteroids", err)
	}
	return count, nil
}

// CountApproaches returns the number of close-approach rows in the store
func (r *RecordRepository) CountApproaches(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM close_approach`).Scan(&count)
	if err != nil {
		return 0, apperrors.NewPersistenceError("count close approaches", err)
	}
	return count, nil
}
