package database

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thereayou/roomchat/internal/models"
)

// DefaultRoomName создается в пустой таблице rooms и получает id 1.
// Клиенты выбирают комнату 1 еще до загрузки списка.
const DefaultRoomName = "General"

// Connect открывает базу для драйвера ("postgres" или "sqlite") и
// применяет миграции.
func (d *Database) Connect(driver, dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	var dialector gorm.Dialector
	switch driver {
	case "", "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if driver == "sqlite" {
		// У sqlite один писатель, а каждое соединение ":memory:" это
		// отдельная база.
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	d.db = db
	return d.Migrate()
}

// Migrate создает таблицы и комнату по умолчанию
func (d *Database) Migrate() error {
	if err := d.db.AutoMigrate(&models.User{}, &models.Room{}, &models.Message{}); err != nil {
		return err
	}

	var count int64
	if err := d.db.Model(&models.Room{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return d.db.Create(&models.Room{Name: DefaultRoomName}).Error
}

// Close закрывает пул соединений
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
