package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Option is one row of the options table.
type Option struct {
	Name      string `gorm:"column:option_name;primaryKey;size:191"`
	Value     string `gorm:"column:option_value;type:text;not null"`
	Autoload  bool   `gorm:"column:autoload;not null;default:true"`
	UpdatedAt time.Time
}

func (Option) TableName() string { return "options" }

// GormStore keeps the option as a row in a Postgres options table. The row
// is upserted whole, so concurrent readers see the old or the new value.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a Postgres connection, pings it and migrates the
// options table.
func NewGormStore(ctx context.Context, databaseURL string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&Option{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate options: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Load(ctx context.Context) (Map, error) {
	var row Option
	err := s.db.WithContext(ctx).First(&row, "option_name = ?", OptionName).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("select %s: %w", OptionName, err)
	}
	return UnmarshalDocument([]byte(row.Value))
}

func (s *GormStore) Save(ctx context.Context, m Map) error {
	raw, err := MarshalDocument(m)
	if err != nil {
		return err
	}
	row := Option{Name: OptionName, Value: string(raw), Autoload: true}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "option_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_value", "autoload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert %s: %w", OptionName, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context) error {
	err := s.db.WithContext(ctx).Where("option_name = ?", OptionName).Delete(&Option{}).Error
	if err != nil {
		return fmt.Errorf("delete %s: %w", OptionName, err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
