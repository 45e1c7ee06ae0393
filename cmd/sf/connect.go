package main

import (
	"fmt"

	"github.com/zulandar/storefront/internal/config"
	"github.com/zulandar/storefront/internal/db"
	"gorm.io/gorm"
)

// connectFromConfig loads the config file and opens the configured database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", describeDB(cfg.Database), err)
	}
	return cfg, gormDB, nil
}

// describeDB names the database for CLI output.
func describeDB(c config.DatabaseConfig) string {
	if c.Driver == "sqlite" {
		return "sqlite:" + c.Path
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Name)
}
