package cctx

import (
	"gorm.io/gorm"

	"github.com/saveblush/reraw-feeds/core/sql"
)

// GetDatabase get connection database
func (c *Context) GetDatabase() *gorm.DB {
	if sql.Database == nil {
		return nil
	}

	return sql.Database.WithContext(c.Context)
}
