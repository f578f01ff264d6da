package core

import (
	"fmt"
	"strings"
)

const DefaultRegistrationID = "shopify"

type Config struct {
	ServiceName    string `koanf:"service_name" mapstructure:"service_name"`
	RegistrationID string `koanf:"registration_id" mapstructure:"registration_id"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:    "storeauth",
		RegistrationID: DefaultRegistrationID,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.RegistrationID) == "" {
		return fmt.Errorf("core: registration_id is required")
	}
	return nil
}
