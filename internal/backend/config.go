package backend

import (
	"fmt"

	"saldo/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	exporter := MemoryExporter
	if appConfig.SheetsEnabled() {
		exporter = SheetsExporter
	}

	cfg := Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Exporter:            exporter,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,

		ReconcileRepair:    appConfig.ReconcileRepair,
		RecentTransactions: appConfig.RecentTransactions,
		DashboardCacheTTL:  appConfig.DashboardCacheTTL,
		DashboardCacheSize: appConfig.DashboardCacheSize,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if c.RequireEvents && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required")
	}
	if c.Exporter != "" && !c.Exporter.IsValid() {
		return fmt.Errorf("invalid exporter type: %s", c.Exporter)
	}
	if c.Exporter == SheetsExporter && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets exporter")
	}
	return nil
}

// GetExporterTypes returns all valid exporter types
func GetExporterTypes() []ExporterType {
	return []ExporterType{SheetsExporter, MemoryExporter}
}
