// Package api wraps the backend endpoints used by the client screens. Each
// call goes through the shared fetch client; read calls keep a cached copy
// in the local store and fall back to it when the backend is unreachable.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"agrilink/pkg/fetch"
	"agrilink/pkg/kv"
	"agrilink/pkg/log"
	"agrilink/pkg/models"
	"agrilink/pkg/retry"

	"github.com/rs/zerolog"
)

// Service is the typed backend API.
type Service struct {
	client *fetch.Client
	cache  kv.Store
	retry  retry.Policy
	logger zerolog.Logger
}

// NewService creates a Service. A nil cache disables offline fallback.
func NewService(client *fetch.Client, cache kv.Store, policy retry.Policy) *Service {
	return &Service{
		client: client,
		cache:  cache,
		retry:  policy,
		logger: log.For("api"),
	}
}

func profilePath(farmerID string) string {
	return "/farmer/" + url.PathEscape(farmerID) + "/profile"
}

func profileCacheKey(farmerID string) string {
	return "farmer_profile_" + farmerID
}

func calendarCacheKey(farmerID string) string {
	return "calendar_events_" + farmerID
}

// GetFarmerProfile fetches a profile, serving the cached copy when the
// backend cannot be reached.
func (s *Service) GetFarmerProfile(ctx context.Context, farmerID string) (*models.FarmerProfile, error) {
	if farmerID == "" {
		return nil, fmt.Errorf("%w: farmer id is required", ErrInvalidArgument)
	}

	var profile models.FarmerProfile
	if err := s.cachedGet(ctx, profilePath(farmerID), profileCacheKey(farmerID), &profile); err != nil {
		return nil, fmt.Errorf("failed to get farmer profile: %w", err)
	}
	return &profile, nil
}

// UpdateFarmerProfile saves a profile and refreshes the cached copy.
func (s *Service) UpdateFarmerProfile(ctx context.Context, farmerID string, profile *models.FarmerProfile) (*models.FarmerProfile, error) {
	if farmerID == "" || profile == nil {
		return nil, fmt.Errorf("%w: farmer id and profile are required", ErrInvalidArgument)
	}

	var updated models.FarmerProfile
	if err := s.client.SendJSON(ctx, http.MethodPut, profilePath(farmerID), profile, &updated); err != nil {
		return nil, fmt.Errorf("failed to update farmer profile: %w", err)
	}

	s.store(ctx, profileCacheKey(farmerID), &updated)
	return &updated, nil
}

// ListRentals returns the rental marketplace listing.
func (s *Service) ListRentals(ctx context.Context) ([]models.RentalItem, error) {
	var items []models.RentalItem
	if err := s.cachedGet(ctx, "/rental/items", "rental_items", &items); err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	return items, nil
}

// BookRental books an item. Bookings are never served from cache.
func (s *Service) BookRental(ctx context.Context, booking models.RentalBooking) (*models.RentalBookingResult, error) {
	if booking.ItemID == "" || booking.FarmerID == "" {
		return nil, fmt.Errorf("%w: item and farmer are required", ErrInvalidArgument)
	}

	var result models.RentalBookingResult
	if err := s.client.SendJSON(ctx, http.MethodPost, "/rental/book", booking, &result); err != nil {
		return nil, fmt.Errorf("failed to book rental: %w", err)
	}
	return &result, nil
}

// GetCalendarEvents returns the farmer's calendar, falling back to the cache.
func (s *Service) GetCalendarEvents(ctx context.Context, farmerID string) ([]models.CalendarEvent, error) {
	if farmerID == "" {
		return nil, fmt.Errorf("%w: farmer id is required", ErrInvalidArgument)
	}

	var events []models.CalendarEvent
	path := "/calendar/" + url.PathEscape(farmerID) + "/events"
	if err := s.cachedGet(ctx, path, calendarCacheKey(farmerID), &events); err != nil {
		return nil, fmt.Errorf("failed to get calendar events: %w", err)
	}
	return events, nil
}

// cachedGet fetches endpoint into out and caches it under key. When the
// backend is unreachable and a cached copy exists, out is filled from cache.
// HTTP status errors are never masked by the cache.
func (s *Service) cachedGet(ctx context.Context, endpoint, key string, out any) error {
	err := s.client.GetJSON(ctx, endpoint, out)
	if err == nil {
		s.store(ctx, key, out)
		return nil
	}

	if s.cache == nil || !fetch.IsUnreachable(err) {
		return err
	}

	if cacheErr := kv.GetJSON(ctx, s.cache, key, out); cacheErr != nil {
		if !errors.Is(cacheErr, kv.ErrNotFound) {
			s.logger.Warn().Err(cacheErr).Str("key", key).Msg("Failed to read cached response")
		}
		return err
	}

	s.logger.Warn().
		Err(err).
		Str("endpoint", endpoint).
		Str("key", key).
		Msg("Backend unreachable, serving cached response")
	return nil
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := kv.PutJSON(ctx, s.cache, key, v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
	}
}
