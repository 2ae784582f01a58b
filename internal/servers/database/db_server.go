package database

import (
	"fmt"
	"sync"

	"marketChat/configs"
	"marketChat/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	db   *gorm.DB
	once sync.Once
)

type PSQL struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSL      string
	Timezone string
}

func GetDB(config *configs.Config, log *zap.SugaredLogger) *gorm.DB {
	once.Do(func() {
		initialize(config, log)
	})
	return db
}

func initialize(config *configs.Config, log *zap.SugaredLogger) {
	var err error
	db, err = gorm.Open(postgres.Open(DSN(getPSQL(config))), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalw("Failed to migrate database", "error", err)
	}
	log.Info("Database migrated successfully")
}

func DSN(psql *PSQL) string {
	return fmt.Sprintf(
		"host=%v user=%v password=%v dbname=%v port=%v sslmode=%v TimeZone=%v",
		psql.Host, psql.User, psql.Password, psql.Name, psql.Port, psql.SSL, psql.Timezone,
	)
}

func getPSQL(config *configs.Config) *PSQL {
	return &PSQL{
		Host:     config.Viper.GetString("database.host"),
		Port:     config.Viper.GetInt("database.port"),
		User:     config.Viper.GetString("database.user"),
		Password: config.Viper.GetString("database.password"),
		Name:     config.Viper.GetString("database.name"),
		SSL:      config.Viper.GetString("database.ssl"),
		Timezone: config.Viper.GetString("database.timezone"),
	}
}

// Migrate creates or updates every table the chat core touches.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
		&models.Notification{},
	)
}
