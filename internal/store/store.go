package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mahmutgunduz1/MyHealth/internal/config"
)

const schemaVersionKey = "schema_version"

// Store provides unified access to SQLite and BadgerDB
type Store struct {
	db     *gorm.DB
	badger *badger.DB
	log    *zap.Logger
	config *config.StorageConfig
}

// New creates a new Store instance. On a schema version mismatch the
// relational tables are dropped and recreated; losing data on upgrade is
// accepted behavior.
func New(cfg *config.Config, log *zap.Logger) (*Store, error) {
	sqliteDB, err := sql.Open("sqlite", cfg.Storage.SQLitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	badgerOpts := badger.DefaultOptions(cfg.Storage.BadgerPath).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	store := &Store{
		db:     db,
		badger: badgerDB,
		log:    log,
		config: &cfg.Storage,
	}

	if err := store.migrate(cfg.Storage.SchemaVersion); err != nil {
		badgerDB.Close()
		return nil, err
	}

	return store, nil
}

// migrate applies the schema, resetting all tables first when the persisted
// schema version does not match the configured one.
func (s *Store) migrate(version int) error {
	stored, err := s.storedSchemaVersion()
	if err != nil {
		return err
	}

	if stored != 0 && stored != version {
		s.log.Warn("Schema version mismatch, resetting tables",
			zap.Int("stored", stored),
			zap.Int("configured", version),
		)
		if err := s.db.Migrator().DropTable(&UserAccount{}, &Appointment{}, &ScheduledNotification{}); err != nil {
			return fmt.Errorf("failed to reset schema: %w", err)
		}
	}

	if err := s.db.AutoMigrate(
		&UserAccount{},
		&Appointment{},
		&ScheduledNotification{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	return s.setStoredSchemaVersion(version)
}

func (s *Store) storedSchemaVersion() (int, error) {
	val, err := s.GetKV(schemaVersionKey)
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	v, err := strconv.Atoi(string(val))
	if err != nil {
		return 0, nil
	}
	return v, nil
}

func (s *Store) setStoredSchemaVersion(version int) error {
	return s.SetKV(schemaVersionKey, []byte(strconv.Itoa(version)))
}

// Close closes all database connections
func (s *Store) Close() error {
	return s.badger.Close()
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Badger returns the BadgerDB instance
func (s *Store) Badger() *badger.DB {
	return s.badger
}

// ==================== KV Methods (BadgerDB) ====================

// SetKV stores a key-value pair
func (s *Store) SetKV(key string, value []byte) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
}

// GetKV retrieves a value by key. Returns badger.ErrKeyNotFound when the
// key is absent.
func (s *Store) GetKV(key string) ([]byte, error) {
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("kv:" + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	return val, err
}

// DeleteKV removes a key-value pair
func (s *Store) DeleteKV(key string) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte("kv:" + key))
	})
}
