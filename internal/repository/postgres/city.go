package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
)

type cityRepository struct {
	*BaseRepository
}

func NewCityRepository(base *BaseRepository) repository.CityRepository {
	return &cityRepository{BaseRepository: base}
}

func (r *cityRepository) Get(ctx context.Context, id uuid.UUID) (*model.City, error) {
	query := `
		SELECT id, name, country_code, min_lon, min_lat, max_lon, max_lat
		FROM cities
		WHERE id = $1
	`
	var city model.City
	err := r.db.GetContext(ctx, &city, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return &city, nil
}

// FindContaining returns the city whose bounding box contains the point.
// Overlapping boxes resolve to the smallest area.
func (r *cityRepository) FindContaining(ctx context.Context, lon, lat float64) (*model.City, error) {
	query := `
		SELECT id, name, country_code, min_lon, min_lat, max_lon, max_lat
		FROM cities
		WHERE $1 BETWEEN min_lon AND max_lon
		AND $2 BETWEEN min_lat AND max_lat
		ORDER BY (max_lon - min_lon) * (max_lat - min_lat) ASC
		LIMIT 1
	`
	var city model.City
	err := r.db.GetContext(ctx, &city, query, lon, lat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find containing city: %w", err)
	}
	return &city, nil
}
