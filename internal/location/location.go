// Package location resolves the device position and a printable address for
// it.
package location

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/fentz26/tasklog/internal/models"
)

// ErrUnavailable is returned when no position source is configured.
var ErrUnavailable = errors.New("location unavailable")

// ErrNoAddress is returned when coordinates cannot be reverse geocoded.
var ErrNoAddress = errors.New("no address found for coordinates")

// Address holds reverse-geocoded address fields.
type Address struct {
	Street  string `yaml:"street"`
	City    string `yaml:"city"`
	Region  string `yaml:"region"`
	Country string `yaml:"country"`
}

// Locator is the device location collaborator. Both calls may fail.
type Locator interface {
	CurrentCoordinates(ctx context.Context) (models.Coordinates, error)
	ReverseGeocode(ctx context.Context, c models.Coordinates) (Address, error)
}

// Fixed reports a configured position, for machines without a GPS.
type Fixed struct {
	enabled bool
	coords  models.Coordinates
	address Address
}

var _ Locator = (*Fixed)(nil)

// NewFixed creates a locator that always reports coords. A disabled locator
// fails every call with ErrUnavailable.
func NewFixed(enabled bool, coords models.Coordinates, address Address) *Fixed {
	return &Fixed{enabled: enabled, coords: coords, address: address}
}

// CurrentCoordinates implements Locator.
func (f *Fixed) CurrentCoordinates(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, err
	}
	if !f.enabled {
		return models.Coordinates{}, ErrUnavailable
	}
	return f.coords, nil
}

// ReverseGeocode implements Locator. Only the configured position resolves.
func (f *Fixed) ReverseGeocode(ctx context.Context, c models.Coordinates) (Address, error) {
	if err := ctx.Err(); err != nil {
		return Address{}, err
	}
	if !f.enabled {
		return Address{}, ErrUnavailable
	}
	if FormatAddress(f.address) == "" || !near(c, f.coords) {
		return Address{}, ErrNoAddress
	}
	return f.address, nil
}

// FormatAddress joins the non-empty address fields with ", ".
func FormatAddress(a Address) string {
	var parts []string
	for _, p := range []string{a.Street, a.City, a.Region, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// near reports whether two positions are within roughly 100m.
func near(a, b models.Coordinates) bool {
	const eps = 0.001
	return math.Abs(a.Latitude-b.Latitude) < eps && math.Abs(a.Longitude-b.Longitude) < eps
}
