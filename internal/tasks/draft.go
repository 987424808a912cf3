package tasks

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fentz26/tasklog/internal/attach"
	"github.com/fentz26/tasklog/internal/location"
	"github.com/fentz26/tasklog/internal/models"
)

// Draft is the pending-create form state.
type Draft struct {
	Title       string
	Description string
	Location    string
	Coordinates *models.Coordinates
	// UseCurrentLocation is set when Location came from the device. Only
	// then are Coordinates stored on the task.
	UseCurrentLocation bool
	Files              []string
	ScheduledFor       *time.Time
}

// Validate checks the length and presence rules for a new task.
func (d Draft) Validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return &ValidationError{Field: "title", Limit: MaxTitleLen, Reason: "is too long"}
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Limit: MaxDescriptionLen, Reason: "is too long"}
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Location)) > MaxLocationLen {
		return &ValidationError{Field: "location", Limit: MaxLocationLen, Reason: "is too long"}
	}
	return nil
}

// UseDeviceLocation fills Location and Coordinates from the device. On
// failure the draft is left untouched and a CollaboratorError is returned.
func (d *Draft) UseDeviceLocation(ctx context.Context, loc location.Locator) error {
	coords, err := loc.CurrentCoordinates(ctx)
	if err != nil {
		return &CollaboratorError{Collaborator: "location", Err: err}
	}
	addr, err := loc.ReverseGeocode(ctx, coords)
	if err != nil {
		return &CollaboratorError{Collaborator: "location", Err: err}
	}

	d.Location = location.FormatAddress(addr)
	d.Coordinates = &coords
	d.UseCurrentLocation = true
	return nil
}

// ClearDeviceLocation drops device-derived coordinates, e.g. after the user
// edits the location by hand.
func (d *Draft) ClearDeviceLocation() {
	d.Coordinates = nil
	d.UseCurrentLocation = false
}

// Attach asks picker for one file and appends it. It reports whether a file
// was added.
func (d *Draft) Attach(ctx context.Context, picker attach.Picker) (bool, error) {
	ref, ok, err := picker.Pick(ctx)
	if err != nil {
		return false, &CollaboratorError{Collaborator: "file picker", Err: err}
	}
	if !ok {
		return false, nil
	}
	d.AddFile(ref)
	return true, nil
}

// AddFile appends a file reference.
func (d *Draft) AddFile(ref string) {
	d.Files = append(d.Files, ref)
}
