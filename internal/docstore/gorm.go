package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// documentRecord is the single table backing every collection.
type documentRecord struct {
	Collection string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	Data       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRecord) TableName() string {
	return "documents"
}

// GORM is a Store backed by a SQL database through GORM. Documents are stored as JSON text.
type GORM struct {
	db *gorm.DB
}

// OpenGORM opens a sqlite or postgres database and migrates the documents table.
func OpenGORM(driver, dsn string) (*GORM, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return NewGORM(db)
}

// NewGORM wraps an open connection and migrates the documents table.
func NewGORM(db *gorm.DB) (*GORM, error) {
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate documents table: %w", err)
	}
	return &GORM{db: db}, nil
}

func (g *GORM) Add(ctx context.Context, collection string, doc Document) (string, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	rec := documentRecord{Collection: collection, ID: uuid.New().String(), Data: string(encoded)}
	if err := g.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return rec.ID, nil
}

func (g *GORM) Get(ctx context.Context, collection, id string) (Document, error) {
	var rec documentRecord
	if err := g.db.WithContext(ctx).First(&rec, "collection = ? AND id = ?", collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return decode([]byte(rec.Data))
}

func (g *GORM) Set(ctx context.Context, collection, id string, doc Document) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	rec := documentRecord{Collection: collection, ID: id, Data: string(encoded)}
	err = g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (g *GORM) Merge(ctx context.Context, collection, id string, fields Document) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		read := tx
		if tx.Dialector.Name() == "postgres" {
			read = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var rec documentRecord
		if err := read.First(&rec, "collection = ? AND id = ?", collection, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
			}
			return fmt.Errorf("failed to load %s/%s for merge: %w", collection, id, err)
		}

		merged, err := mergeEncoded([]byte(rec.Data), fields)
		if err != nil {
			return err
		}
		res := tx.Model(&documentRecord{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": string(merged), "updated_at": time.Now()})
		if res.Error != nil {
			return fmt.Errorf("failed to merge %s/%s: %w", collection, id, res.Error)
		}
		return nil
	})
}

func (g *GORM) Delete(ctx context.Context, collection, id string) error {
	res := g.db.WithContext(ctx).Delete(&documentRecord{}, "collection = ? AND id = ?", collection, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, res.Error)
	}
	return nil
}

func (g *GORM) Scan(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	tx := g.db.WithContext(ctx).Where("collection = ?", collection)
	if q.OrderBy == "" {
		if q.StartAfter != "" {
			if q.Descending {
				tx = tx.Where("id < ?", q.StartAfter)
			} else {
				tx = tx.Where("id > ?", q.StartAfter)
			}
		}
		tx = tx.Order("id " + dir)
	} else {
		tx = tx.Order(g.fieldExpr(q.OrderBy) + " " + dir).Order("id " + dir)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var recs []documentRecord
	if err := tx.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
	}

	snapshots := make([]Snapshot, 0, len(recs))
	for _, rec := range recs {
		doc, err := decode([]byte(rec.Data))
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, Snapshot{ID: rec.ID, Data: doc})
	}
	return snapshots, nil
}

func (g *GORM) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// fieldExpr extracts a top-level JSON field for ordering. field has been checked by checkQuery.
func (g *GORM) fieldExpr(field string) string {
	if g.db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("(data::jsonb ->> '%s')", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}
