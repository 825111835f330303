package db

import (
	"cms/config"
	"cms/logger"

	mysqlcfg "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Instance *gorm.DB

// Init opens MySQL when MYSQL_DSN is configured and falls back to SQLite otherwise
func Init() {
	var dialector gorm.Dialector
	if config.MYSQL_DSN != "" {
		dialector = mysql.Open(config.MYSQL_DSN)
		logger.L().Info("using MySQL", zap.String("target", RedactDSN(config.MYSQL_DSN)))
	} else {
		dialector = sqlite.Open(config.SQLITE_FILE)
		logger.L().Info("using SQLite", zap.String("file", config.SQLITE_FILE))
	}
	db, err := Open(dialector, config.DEBUG_MODE)
	if err != nil || db == nil {
		logger.L().Fatal("cannot open database", zap.Error(err))
	}
	Instance = db
}

// Open creates a gorm handle. Writes are not wrapped in implicit transactions,
// callers that need atomicity use db.Transaction explicitly.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if debug {
		logLevel = gormlogger.Info
	}
	return gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 gormlogger.Default.LogMode(logLevel),
	})
}

// RedactDSN returns user@net(addr)/dbname without the password
func RedactDSN(dsn string) string {
	cfg, err := mysqlcfg.ParseDSN(dsn)
	if err != nil {
		return "invalid dsn"
	}
	return cfg.User + "@" + cfg.Net + "(" + cfg.Addr + ")/" + cfg.DBName
}
