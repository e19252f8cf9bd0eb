package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
)

// ErrOutsideCoverage is returned when no known city contains the point.
var ErrOutsideCoverage = errors.New("location outside covered area")

// Service answers point-in-city containment lookups for initiative creation.
type Service struct {
	cityRepo repository.CityRepository
}

func NewService(cityRepo repository.CityRepository) *Service {
	return &Service{cityRepo: cityRepo}
}

// FindContainingCity returns the city the point falls into.
func (s *Service) FindContainingCity(ctx context.Context, point model.GeoPoint) (*model.City, error) {
	city, err := s.cityRepo.FindContaining(ctx, point.Longitude, point.Latitude)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOutsideCoverage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up city: %w", err)
	}
	return city, nil
}
