package domain

// Fragment categories recognized by the prompt assembler.
const (
	FragmentCategoryEventType   = "event_type"
	FragmentCategoryStylePreset = "style_preset"
)

// PromptFragment is an admin-editable snippet of prompt text keyed by
// (category, subcategory). Only the active fragment with the highest version
// is ever served to the assembler.
type PromptFragment struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Content     string `json:"content"`
	IsActive    bool   `json:"is_active"`
	Version     int    `json:"version"`
}
