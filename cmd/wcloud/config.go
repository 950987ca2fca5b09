package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/zulandar/wordcloud/internal/config"
	"github.com/zulandar/wordcloud/internal/db"
	"gorm.io/gorm"
)

const (
	defaultConfigPath = "wordcloud.yaml"
	defaultEnvPath    = ".env"
)

// loadConfig reads .env and then the config file. A missing file at the
// default path means "run on defaults"; an explicit path must exist.
func loadConfig(configPath string) (*config.Config, error) {
	if err := config.LoadDotEnv(defaultEnvPath); err != nil {
		return nil, fmt.Errorf("load %s: %w", defaultEnvPath, err)
	}
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) && configPath == defaultConfigPath {
		return config.Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}
	return cfg, gormDB, nil
}
