package repo

import (
	"log"

	"sequence-service/internal/config"
	"sequence-service/internal/model"
	"sequence-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.Error(err),
		)
	}

	if err := DB.AutoMigrate(&model.GameRecord{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
