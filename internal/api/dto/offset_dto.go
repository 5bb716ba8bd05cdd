package dto

import "github.com/spec-kit/offset-service/internal/domain"

// OffsetRequest is the writable shape of a named offset.
type OffsetRequest struct {
	Label  string `json:"label" validate:"required,min=3,max=100"`
	City   string `json:"city"`
	Offset string `json:"offset" validate:"required,utcoffset"`
}

// OffsetResponse is the external shape of a named offset.
type OffsetResponse struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	City   string `json:"city"`
	Offset string `json:"offset"`
}

// NewOffsetResponse maps a domain record.
func NewOffsetResponse(o *domain.NamedOffset) OffsetResponse {
	return OffsetResponse{ID: o.ID, Label: o.Label, City: o.City, Offset: o.Offset}
}

// NewOffsetResponses maps a list of records.
func NewOffsetResponses(list []domain.NamedOffset) []OffsetResponse {
	out := make([]OffsetResponse, 0, len(list))
	for i := range list {
		out = append(out, NewOffsetResponse(&list[i]))
	}
	return out
}
