package sql

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saveblush/reraw-feeds/core/utils"
)

// dsn builds a postgres dsn, dbname is left out when empty
func dsn(cf *Configuration, dbname string) string {
	s := fmt.Sprintf("user=%s password=%s host=%s port=%d TimeZone=%s sslmode=disable connect_timeout=5",
		cf.Username,
		cf.Password,
		cf.Host,
		cf.Port,
		utils.TimeZone(),
	)
	if dbname != "" {
		s += " dbname=" + dbname
	}

	return s
}

// openPostgres open initialize a new db connection.
func openPostgres(cf *Configuration) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn(cf, cf.DatabaseName),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), defaultConfig)
}
