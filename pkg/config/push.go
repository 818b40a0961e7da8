package config

import (
	"github.com/go-playground/validator/v10"
)

// PushConfig holds what the CKAN to geonetwork publisher needs.
type PushConfig struct {
	CKANURL            string `validate:"required,http_url" comment:"CKAN catalogue URL"`
	GeonetworkURL      string `validate:"required,http_url" comment:"Geonetwork base URL"`
	GeonetworkUser     string `validate:"required" comment:"Geonetwork user"`
	GeonetworkPassword string `validate:"required" comment:"Geonetwork password"`
}

// Push returns the publisher settings from cfg. Flags passed in override
// the environment when non-empty.
func (cfg *Config) Push(override *PushConfig) *PushConfig {
	p := &PushConfig{
		CKANURL:            cfg.CKAN.URL,
		GeonetworkURL:      cfg.Geonetwork.URL,
		GeonetworkUser:     cfg.Geonetwork.Username,
		GeonetworkPassword: cfg.Geonetwork.Password,
	}
	if override == nil {
		return p
	}
	if override.CKANURL != "" {
		p.CKANURL = override.CKANURL
	}
	if override.GeonetworkURL != "" {
		p.GeonetworkURL = override.GeonetworkURL
	}
	if override.GeonetworkUser != "" {
		p.GeonetworkUser = override.GeonetworkUser
	}
	if override.GeonetworkPassword != "" {
		p.GeonetworkPassword = override.GeonetworkPassword
	}
	return p
}

// Validate validates the PushConfig.
func (p *PushConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return &Error{Err: err}
	}
	return nil
}
