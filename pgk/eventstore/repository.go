package eventstore

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/models"
)

const defaultLimit = 50

// repository interface
type Repository interface {
	FindAll(db *gorm.DB, req *Request) ([]*models.CachedEvent, error)
	Insert(db *gorm.DB, req *models.CachedEvent) error
	DeleteOlderVersions(db *gorm.DB, req *models.CachedEvent) error
	DeleteByIDs(db *gorm.DB, pubkey string, ids []string) error
	DeleteByAddress(db *gorm.DB, kind int, pubkey, d string, until nostr.Timestamp) error
	DeleteByAuthors(db *gorm.DB, authors []string) error
	DeleteEventsExpiration(db *gorm.DB, now nostr.Timestamp) (int64, error)
	InsertBlacklist(db *gorm.DB, req *models.Blacklist) error
	FindBlacklists(db *gorm.DB, req *models.Blacklist) ([]*models.Blacklist, error)
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func makePlaceParams(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}

func (r *repository) query(req *Request) (string, []any) {
	var conditions []string
	var params []any

	// ไม่คืนเหตุการณ์ที่หมดอายุแล้ว
	conditions = append(conditions, `(expiration IS NULL OR expiration = 0 OR expiration > ?)`)
	params = append(params, req.Now)

	if len(req.IDs) > 0 {
		for _, v := range req.IDs {
			params = append(params, v)
		}
		conditions = append(conditions, `id IN (`+makePlaceParams(len(req.IDs))+`)`)
	}

	if len(req.Kinds) > 0 {
		for _, v := range req.Kinds {
			params = append(params, v)
		}
		conditions = append(conditions, `kind IN (`+makePlaceParams(len(req.Kinds))+`)`)
	}

	if len(req.Authors) > 0 {
		for _, v := range req.Authors {
			params = append(params, v)
		}
		conditions = append(conditions, `pubkey IN (`+makePlaceParams(len(req.Authors))+`)`)
	}

	if !generic.IsEmpty(req.Until) {
		conditions = append(conditions, `created_at <= ?`)
		params = append(params, *req.Until)
	}

	var sqlLimit string
	if !req.NoLimit {
		limit := req.Limit
		if limit <= 0 {
			limit = defaultLimit
		}
		sqlLimit = "LIMIT ?"
		params = append(params, limit)
	}

	sql := `SELECT id, created_at, pubkey, kind, d_tag, tags, content, sig, expiration, stored_at
			FROM ` + models.CachedEvent{}.TableName() + `
			WHERE ` + strings.Join(conditions, " AND ") + `
			ORDER BY created_at DESC, id ` + sqlLimit

	return sql, params
}

func (r *repository) FindAll(db *gorm.DB, req *Request) ([]*models.CachedEvent, error) {
	sql, params := r.query(req)

	entities := []*models.CachedEvent{}
	err := db.Raw(sql, params...).Scan(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *repository) Insert(db *gorm.DB, req *models.CachedEvent) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(req).Error
}

// DeleteOlderVersions drops cached versions superseded by req
func (r *repository) DeleteOlderVersions(db *gorm.DB, req *models.CachedEvent) error {
	return db.Where("kind = ? AND pubkey = ? AND d_tag = ? AND created_at < ?", req.Kind, req.Pubkey, req.DTag, req.CreatedAt).
		Delete(&models.CachedEvent{}).Error
}

func (r *repository) DeleteByIDs(db *gorm.DB, pubkey string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return db.Where("pubkey = ? AND id IN ?", pubkey, ids).Delete(&models.CachedEvent{}).Error
}

func (r *repository) DeleteByAddress(db *gorm.DB, kind int, pubkey, d string, until nostr.Timestamp) error {
	return db.Where("kind = ? AND pubkey = ? AND d_tag = ? AND created_at <= ?", kind, pubkey, d, until).
		Delete(&models.CachedEvent{}).Error
}

func (r *repository) DeleteByAuthors(db *gorm.DB, authors []string) error {
	if len(authors) == 0 {
		return nil
	}

	return db.Where("pubkey IN ?", authors).Delete(&models.CachedEvent{}).Error
}

func (r *repository) DeleteEventsExpiration(db *gorm.DB, now nostr.Timestamp) (int64, error) {
	query := db.Where("expiration > 0 AND expiration <= ?", now).Delete(&models.CachedEvent{})
	if query.Error != nil {
		return 0, query.Error
	}

	return query.RowsAffected, nil
}

func (r *repository) InsertBlacklist(db *gorm.DB, req *models.Blacklist) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pubkey"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(req).Error
}

func (r *repository) queryFindBlacklists(db *gorm.DB, req *models.Blacklist) *gorm.DB {
	if !generic.IsEmpty(req.Pubkey) {
		db = db.Where("pubkey = ?", req.Pubkey)
	}

	return db
}

func (r *repository) FindBlacklists(db *gorm.DB, req *models.Blacklist) ([]*models.Blacklist, error) {
	entities := []*models.Blacklist{}
	err := r.queryFindBlacklists(db, req).Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}
