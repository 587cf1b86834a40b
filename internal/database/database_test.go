package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"blogsys/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "nested", "blog.db"),
	}
}

func tableExists(t *testing.T, db *gorm.DB, name string) bool {
	t.Helper()
	return db.Migrator().HasTable(name)
}

func TestConnect_CreatesDataDirAndSchema(t *testing.T) {
	cfg := sqliteConfig(t)
	db, err := Connect(cfg)
	require.NoError(t, err)
	defer Close(db)

	_, statErr := os.Stat(filepath.Dir(cfg.DBPath))
	assert.NoError(t, statErr)
	assert.True(t, tableExists(t, db, "users"))
	assert.True(t, tableExists(t, db, "comments"))
	assert.True(t, tableExists(t, db, "migration_logs"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.NoError(t, Ping(context.Background(), db))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := Connect(sqliteConfig(t))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, RunMigrations(context.Background(), db))

	var count int64
	require.NoError(t, db.Model(&MigrationLog{}).Count(&count).Error)
	migrations, err := LoadMigrations("sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(len(migrations)), count)
}

func TestRollbackMigration(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(sqliteConfig(t))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, RollbackMigration(ctx, db, 2))
	assert.False(t, tableExists(t, db, "comments"))
	assert.True(t, tableExists(t, db, "users"))

	status, err := GetMigrationStatus(ctx, db)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)

	err = RollbackMigration(ctx, db, 2)
	assert.ErrorContains(t, err, "has not been applied")
	err = RollbackMigration(ctx, db, 99)
	assert.ErrorContains(t, err, "not found")

	require.NoError(t, RunMigrations(ctx, db))
	assert.True(t, tableExists(t, db, "comments"))
}

func TestRunMigrations_RejectsUnknownVersions(t *testing.T) {
	db, err := Connect(sqliteConfig(t))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&MigrationLog{Version: 42, Name: "from_the_future"}).Error)
	err = RunMigrations(context.Background(), db)
	assert.ErrorContains(t, err, "000042")
}

func TestLoadMigrations_SkipsBadNames(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_b.up.sql":   {Data: []byte("B")},
		"m/000002_b.down.sql": {Data: []byte("-B")},
		"m/000001_a.up.sql":   {Data: []byte("A")},
		"m/000001_a.down.sql": {Data: []byte("-A")},
		"m/bogus.up.sql":      {Data: []byte("x")},
		"m/README.md":         {Data: []byte("docs")},
	}
	got, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "000001_a", got[0].String())
	assert.Equal(t, "-B", got[1].DownScript)
}

func TestLoadMigrations_MissingDown(t *testing.T) {
	fsys := fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("A")}}
	_, err := loadMigrations(fsys, "m")
	assert.ErrorContains(t, err, "down migration")
}

func TestLoadMigrations_Postgres(t *testing.T) {
	got, err := LoadMigrations("postgres")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].UpScript, "BIGSERIAL")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestCustomGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	l.Config.SlowThreshold = time.Millisecond

	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	silent := l.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Empty(t, buf.String())
}
