package dto

// UpsertTemplateRequest creates or updates a document template slot. An
// empty PeriodID makes the template global.
type UpsertTemplateRequest struct {
	PeriodID     string `json:"period_id"`
	Slug         string `json:"slug" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Required     bool   `json:"required"`
	DisplayOrder int    `json:"display_order"`
}
