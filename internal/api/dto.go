package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eidsvag/animere/internal/catalog"
	"github.com/eidsvag/animere/internal/theme"
)

// AnimateRequest is the request body for starting an animation run.
type AnimateRequest struct {
	Name        string `json:"name" example:"checkout-flow"`
	Source      string `json:"source" example:"flowchart TD\n  A --> B" validate:"required"`
	Description string `json:"description,omitempty" example:"reveal the flow left to right"`
	FrameHint   int    `json:"frame_hint,omitempty" example:"5"`
	Theme       string `json:"theme,omitempty" example:"cyberpunk"`
}

// Validate checks the request fields.
func (r AnimateRequest) Validate() error {
	themeNames := make([]interface{}, 0, len(theme.Names()))
	for _, n := range theme.Names() {
		themeNames = append(themeNames, n)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Source, validation.Required),
		validation.Field(&r.FrameHint, validation.Min(0), validation.Max(50)),
		validation.Field(&r.Theme, validation.In(themeNames...)),
	)
}

// ValidateRequest is the request body for standalone diagram validation.
type ValidateRequest struct {
	Source string `json:"source" example:"flowchart TD\n  A --> B" validate:"required"`
}

// RunResponse is one catalog entry in API responses.
type RunResponse struct {
	ID         string    `json:"id" example:"20260826T120000-ab12cd34"`
	Name       string    `json:"name" example:"checkout-flow"`
	Kind       string    `json:"kind" example:"flowchart"`
	FrameCount int       `json:"frame_count" example:"5"`
	TotalMS    int64     `json:"total_ms" example:"6250"`
	Theme      string    `json:"theme" example:"cyberpunk"`
	Checksum   string    `json:"checksum" example:"abc123..."`
	CreatedAt  time.Time `json:"created_at"`
}

func runResponse(r catalog.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		Name:       r.Name,
		Kind:       r.Kind,
		FrameCount: r.FrameCount,
		TotalMS:    r.TotalMS,
		Theme:      r.Theme,
		Checksum:   r.Checksum,
		CreatedAt:  r.CreatedAt,
	}
}

// RunListResponse wraps paginated run listings.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// ValidateResponse reports the outcome of standalone validation.
type ValidateResponse struct {
	Valid bool   `json:"valid" example:"true"`
	Kind  string `json:"kind,omitempty" example:"flowchart"`
	Code  string `json:"code,omitempty" example:"unterminated_block"`
	Error string `json:"error,omitempty"`
}

// ThemeListResponse wraps the built-in theme catalog.
type ThemeListResponse struct {
	Themes []theme.Theme `json:"themes" validate:"required"`
}
