package app

import (
	"pagebuilder/internal/layers"
	"pagebuilder/internal/settings"
)

// SettingsView is the frontend view of the settings sidebar.
type SettingsView struct {
	Kind    settings.SurfaceKind `json:"kind"`
	BlockID string               `json:"blockId,omitempty"`
	Title   string               `json:"title,omitempty"`
	Fields  []settings.Field     `json:"fields,omitempty"`
	Layers  []layers.Row         `json:"layers,omitempty"`
	Message string               `json:"message,omitempty"`
}

// ApprovalView is a pending destructive MCP action shown to the user.
type ApprovalView struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"`
}
