package bootstrap

import (
	"testing"

	"blogsys/internal/database"
	"blogsys/internal/testutil"
	"blogsys/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_SeedsEmptyDevelopmentDB(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.Env = "development"

	db, rdb, err := InitRuntime(cfg, Options{DemoComments: 4})
	require.NoError(t, err)
	defer database.Close(db)
	assert.Nil(t, rdb)

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
	database.Close(db)

	// A second start leaves existing data alone.
	db, _, err = InitRuntime(cfg, Options{DemoComments: 4})
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestInitRuntime_NoSeedOutsideDevelopment(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.SeedDemoComments = 10

	db, _, err := InitRuntime(cfg, OptionsFromConfig(cfg))
	require.NoError(t, err)
	defer database.Close(db)

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInitRuntime_BadDriver(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.DBDriver = "oracle"

	_, _, err := InitRuntime(cfg, Options{})
	assert.ErrorContains(t, err, "database connection failed")
}
