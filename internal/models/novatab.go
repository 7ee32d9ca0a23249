package models

import "time"

type NovaTabConfig struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	ConfigName    string    `db:"config_name" json:"config_name"`
	APIEndpoint   string    `db:"api_endpoint" json:"api_endpoint"`
	APIKey        string    `db:"api_key" json:"api_key,omitempty"`
	FieldMappings FieldMap  `db:"field_mappings" json:"field_mappings"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ConfigSummary is the list projection; the API key stays out of it.
type ConfigSummary struct {
	ID            string    `db:"id" json:"id"`
	ConfigName    string    `db:"config_name" json:"config_name"`
	APIEndpoint   string    `db:"api_endpoint" json:"api_endpoint"`
	FieldMappings FieldMap  `db:"field_mappings" json:"field_mappings"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type ConfigRequest struct {
	ConfigName    string   `json:"config_name"`
	APIEndpoint   string   `json:"api_endpoint"`
	APIKey        string   `json:"api_key"`
	FieldMappings FieldMap `json:"field_mappings"`
}

// ConfigUpdateRequest carries a partial update; nil fields are left alone.
type ConfigUpdateRequest struct {
	ConfigName    *string   `json:"config_name"`
	APIEndpoint   *string   `json:"api_endpoint"`
	APIKey        *string   `json:"api_key"`
	FieldMappings *FieldMap `json:"field_mappings"`
}
