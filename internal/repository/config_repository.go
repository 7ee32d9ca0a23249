package repository

import (
	"strings"

	"migration-web/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ConfigRepository struct {
	db *sqlx.DB
}

func NewConfigRepository(db *sqlx.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) Create(config *models.NovaTabConfig) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	query := `INSERT INTO novatab_configs (id, user_id, config_name, api_endpoint,
	          api_key, field_mappings, is_active)
	          VALUES (:id, :user_id, :config_name, :api_endpoint,
	          :api_key, :field_mappings, :is_active)`
	_, err := r.db.NamedExec(query, config)
	return err
}

func (r *ConfigRepository) FindByUser(userID string) ([]models.ConfigSummary, error) {
	var configs []models.ConfigSummary
	query := `SELECT id, config_name, api_endpoint, field_mappings, is_active, created_at
	          FROM novatab_configs WHERE user_id = ?
	          ORDER BY created_at DESC, id DESC`
	err := r.db.Select(&configs, query, userID)
	return configs, err
}

func (r *ConfigRepository) FindByIDAndUser(id, userID string) (*models.NovaTabConfig, error) {
	var config models.NovaTabConfig
	query := "SELECT * FROM novatab_configs WHERE id = ? AND user_id = ? LIMIT 1"
	err := r.db.Get(&config, query, id, userID)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Update applies a partial update; only non-nil request fields end up in SET.
func (r *ConfigRepository) Update(id, userID string, req *models.ConfigUpdateRequest) (int64, error) {
	updates := []string{}
	args := []interface{}{}

	if req.ConfigName != nil {
		updates = append(updates, "config_name = ?")
		args = append(args, *req.ConfigName)
	}
	if req.APIEndpoint != nil {
		updates = append(updates, "api_endpoint = ?")
		args = append(args, *req.APIEndpoint)
	}
	if req.APIKey != nil {
		updates = append(updates, "api_key = ?")
		args = append(args, *req.APIKey)
	}
	if req.FieldMappings != nil {
		updates = append(updates, "field_mappings = ?")
		args = append(args, *req.FieldMappings)
	}

	if len(updates) == 0 {
		return 0, nil
	}

	query := "UPDATE novatab_configs SET " + strings.Join(updates, ", ") +
		" WHERE id = ? AND user_id = ?"
	args = append(args, id, userID)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

func (r *ConfigRepository) DeleteByIDAndUser(id, userID string) (int64, error) {
	query := "DELETE FROM novatab_configs WHERE id = ? AND user_id = ?"
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
