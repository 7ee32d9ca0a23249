package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"migration-web/internal/models"
)

// ConfigStore is the destination-configuration persistence surface.
type ConfigStore interface {
	Create(config *models.NovaTabConfig) error
	FindByUser(userID string) ([]models.ConfigSummary, error)
	FindByIDAndUser(id, userID string) (*models.NovaTabConfig, error)
	Update(id, userID string, req *models.ConfigUpdateRequest) (int64, error)
	DeleteByIDAndUser(id, userID string) (int64, error)
}

type ConfigService struct {
	configs ConfigStore
	novatab *NovaTabClient
}

func NewConfigService(configs ConfigStore, novatab *NovaTabClient) *ConfigService {
	return &ConfigService{configs: configs, novatab: novatab}
}

func (s *ConfigService) Create(userID string, req *models.ConfigRequest) (*models.NovaTabConfig, error) {
	if err := validateConfigRequest(req); err != nil {
		return nil, err
	}

	config := &models.NovaTabConfig{
		UserID:        userID,
		ConfigName:    req.ConfigName,
		APIEndpoint:   req.APIEndpoint,
		APIKey:        req.APIKey,
		FieldMappings: req.FieldMappings,
		IsActive:      true,
	}
	if err := s.configs.Create(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfigRequest(req *models.ConfigRequest) error {
	if req.ConfigName == "" {
		return fmt.Errorf("config_name is required")
	}
	if req.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if req.FieldMappings == nil {
		return fmt.Errorf("field_mappings is required")
	}
	u, err := url.Parse(req.APIEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_endpoint must be a valid URL")
	}
	return nil
}

func (s *ConfigService) List(userID string) ([]models.ConfigSummary, error) {
	return s.configs.FindByUser(userID)
}

func (s *ConfigService) Get(userID, configID string) (*models.NovaTabConfig, error) {
	config, err := s.configs.FindByIDAndUser(configID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return config, nil
}

func (s *ConfigService) Update(userID, configID string, req *models.ConfigUpdateRequest) error {
	if req.ConfigName == nil && req.APIEndpoint == nil && req.APIKey == nil && req.FieldMappings == nil {
		return fmt.Errorf("no updates provided")
	}
	if req.APIEndpoint != nil {
		u, err := url.Parse(*req.APIEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api_endpoint must be a valid URL")
		}
	}

	affected, err := s.configs.Update(configID, userID, req)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ConfigService) Delete(userID, configID string) error {
	affected, err := s.configs.DeleteByIDAndUser(configID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Test probes the stored endpoint and reports it back.
func (s *ConfigService) Test(ctx context.Context, userID, configID string) (string, error) {
	config, err := s.Get(userID, configID)
	if err != nil {
		return "", err
	}
	if err := s.novatab.TestConnection(ctx, config.APIEndpoint, config.APIKey); err != nil {
		return "", err
	}
	return config.APIEndpoint, nil
}
