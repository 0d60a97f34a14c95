package backend

import (
	"fmt"

	"financeflow/internal/config"
)

// FromAppConfig converts the application config to backend config.
// The Sheets mirror is chosen whenever a spreadsheet is configured.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	mirror := MemoryMirror
	if appConfig.GoogleSpreadsheetID != "" {
		mirror = SheetsMirror
	}

	cfg := Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		CategoriesPath:     appConfig.CategoriesPath,
		CategoriesCacheTTL: appConfig.CategoriesCacheTTL,

		MirrorType:          mirror,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if c.CategoriesPath == "" {
		return fmt.Errorf("categories path is required")
	}
	if c.CategoriesCacheTTL <= 0 {
		return fmt.Errorf("categories cache TTL must be positive")
	}
	if !c.MirrorType.IsValid() {
		return fmt.Errorf("invalid mirror type: %s", c.MirrorType)
	}
	if c.MirrorType == SheetsMirror {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets mirror")
		}
		if c.GoogleSheetName == "" {
			return fmt.Errorf("Google Sheet name is required for sheets mirror")
		}
	}
	return nil
}
