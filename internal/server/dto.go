package server

import (
	"time"

	"github.com/ramonerose/dtfgangsheet/pkg/api"
)

// designRequest names one design and how many copies of it to place.
// Source is anything the resource loader accepts: an http(s) URL, a
// data: URL, or a path under the configured resource directories. A
// design given by widthInches and heightInches alone can be quoted but
// not rendered.
type designRequest struct {
	Name         string  `json:"name"`
	Source       string  `json:"source"`
	WidthInches  float64 `json:"widthInches" binding:"omitempty,min=0"`
	HeightInches float64 `json:"heightInches" binding:"omitempty,min=0"`
	Quantity     int     `json:"quantity" binding:"required,min=1,max=10000"`
}

// layoutOptions carries the per-request overrides of the server's sheet
// defaults. Pointer fields distinguish an absent value from an explicit
// zero, which is legal for margin and spacing.
type layoutOptions struct {
	WidthInches     float64  `json:"widthInches" binding:"omitempty,eq=22|eq=30"`
	MaxLengthInches float64  `json:"maxLengthInches" binding:"omitempty,min=12,max=200"`
	MarginInches    *float64 `json:"marginInches" binding:"omitempty"`
	SpacingInches   *float64 `json:"spacingInches" binding:"omitempty"`
	Rotate          *bool    `json:"rotate"`
	AutoOrient      *bool    `json:"autoOrient"`
	Format          string   `json:"format" binding:"omitempty,oneof=pdf zip json"`
}

// generateRequest is the JSON body for the generate and quote endpoints.
type generateRequest struct {
	Designs []designRequest `json:"designs" binding:"required,min=1,dive"`
	Options layoutOptions   `json:"options"`
}

// generateResponse is the json-format reply: the layout result plus the
// stored document, inline as base64 and by download URL.
type generateResponse struct {
	JobID       string      `json:"jobId"`
	DownloadURL string      `json:"downloadUrl"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"contentType"`
	Payload     string      `json:"payload"`
	Result      *api.Result `json:"result"`
}

// jobResponse describes a stored job without its payload.
type jobResponse struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"contentType"`
	CreatedAt   time.Time   `json:"createdAt"`
	DownloadURL string      `json:"downloadUrl"`
	Result      *api.Result `json:"result"`
}

// pricingResponse lists the tier table quotes are priced against.
type pricingResponse struct {
	Tiers []api.Tier `json:"tiers"`
}

// errorResponse is the JSON shape of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
