package sql

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
)

func createDatabase(cf *Configuration) error {
	db, err := gorm.Open(postgres.Open(dsn(cf, "")), &gorm.Config{})
	if err != nil {
		return err
	}
	defer CloseConnection(db)

	var exc string
	sql := "SELECT 'CREATE DATABASE " + cf.DatabaseName + "' WHERE NOT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)"
	err = db.Raw(sql, cf.DatabaseName).Scan(&exc).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Errorf("check already database error: %s", err)
	}
	if !generic.IsEmpty(exc) {
		err := db.Exec(exc).Error
		if err != nil {
			logger.Log.Errorf("create database error: %s", err)
			return err
		}
	}

	return nil
}

// Migration creates the cached events table and the blacklist table
func Migration(db *gorm.DB) error {
	var sqls []string
	sqls = append(sqls, `
		CREATE TABLE IF NOT EXISTS `+models.CachedEvent{}.TableName()+` (
			id varchar(64) NOT NULL PRIMARY KEY,
			created_at integer DEFAULT NULL,
			pubkey varchar(64) DEFAULT NULL,
			kind integer DEFAULT NULL,
			d_tag text DEFAULT NULL,
			tags jsonb DEFAULT NULL,
			content text DEFAULT NULL,
			sig text DEFAULT NULL,
			expiration integer DEFAULT NULL,
			stored_at integer DEFAULT NULL
 		);
	`)

	// index events
	sqls = append(sqls, `CREATE INDEX IF NOT EXISTS idx_cached_events_pubkey_kind ON `+models.CachedEvent{}.TableName()+` (pubkey, kind);`)
	sqls = append(sqls, `CREATE INDEX IF NOT EXISTS idx_cached_events_created_at ON `+models.CachedEvent{}.TableName()+` (created_at DESC);`)
	sqls = append(sqls, `CREATE INDEX IF NOT EXISTS idx_cached_events_expiration ON `+models.CachedEvent{}.TableName()+` (expiration);`)

	for _, sql := range sqls {
		err := db.Exec(sql).Error
		if err != nil {
			logger.Log.Errorf("db migration error: %s", err)
			return err
		}
	}

	if err := db.AutoMigrate(&models.Blacklist{}); err != nil {
		logger.Log.Errorf("db migration blacklist error: %s", err)
		return err
	}

	return nil
}
