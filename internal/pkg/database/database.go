package database

import (
	"fmt"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDatabase opens the MySQL connection pool and migrates the schema.
func InitDatabase() error {
	mysqlCfg := config.GlobalConfig.Database.MySQL

	logLevel := gormlogger.Warn
	if config.GlobalConfig.App.Mode == "debug" {
		logLevel = gormlogger.Info
	}

	gormDB, err := gorm.Open(mysql.Open(mysqlCfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("获取数据库句柄失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(mysqlCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(mysqlCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(mysqlCfg.ConnMaxLifetime)

	if err := Migrate(gormDB); err != nil {
		return err
	}

	db = gormDB
	return nil
}

// Migrate creates or updates all application tables.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.DietRecord{},
		&model.MenuRecognition{},
		&model.TripPlan{},
		&model.TripItem{},
		&model.ExerciseRecord{},
		&model.MealComparison{},
		&model.AICallLog{},
	); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

// GetDB returns the process-wide connection pool.
func GetDB() *gorm.DB {
	return db
}

func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
