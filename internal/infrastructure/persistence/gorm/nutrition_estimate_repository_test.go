package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/larderly/server/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// NutritionEstimateRepositoryTestSuite runs against an in-memory sqlite
// database
type NutritionEstimateRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo *NutritionEstimateRepository
	now  time.Time
	ctx  context.Context
}

func (suite *NutritionEstimateRepositoryTestSuite) SetupTest() {
	db, err := Open(config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxOpenConns: 1,
		LogLevel:     "silent",
		AutoMigrate:  true,
	}, zaptest.NewLogger(suite.T()))
	require.NoError(suite.T(), err)

	suite.db = db
	suite.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	suite.repo = NewNutritionEstimateRepository(db)
	suite.repo.now = func() time.Time { return suite.now }
	suite.ctx = context.Background()
}

func (suite *NutritionEstimateRepositoryTestSuite) TearDownTest() {
	_ = Close(suite.db)
}

func estimate(key string, calories float64) *outbound.NutritionEstimate {
	return &outbound.NutritionEstimate{
		Key:     key,
		Source:  outbound.SourceEstimated,
		Profile: nutrition.NewProfile(map[nutrition.NutrientKey]float64{nutrition.Calories: calories, nutrition.SodiumMg: 12}),
	}
}

func (suite *NutritionEstimateRepositoryTestSuite) TestUpsertAndFind() {
	// Arrange
	e := estimate("nutrition:v1:abc", 320)

	// Act
	err := suite.repo.Upsert(suite.ctx, e)
	found, findErr := suite.repo.FindByKey(suite.ctx, "nutrition:v1:abc")

	// Assert
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), findErr)
	assert.Equal(suite.T(), outbound.SourceEstimated, found.Source)
	assert.Equal(suite.T(), e.Profile.Values(), found.Profile.Values())
	assert.False(suite.T(), found.Profile.Has(nutrition.ProteinG), "unknown stays NULL")
	assert.True(suite.T(), found.UpdatedAt.Equal(suite.now))
}

func (suite *NutritionEstimateRepositoryTestSuite) TestUpsertOverwrites() {
	require.NoError(suite.T(), suite.repo.Upsert(suite.ctx, estimate("k", 100)))
	suite.now = suite.now.Add(time.Hour)

	second := estimate("k", 200)
	second.Source = outbound.SourceDeterministic
	require.NoError(suite.T(), suite.repo.Upsert(suite.ctx, second))

	found, err := suite.repo.FindByKey(suite.ctx, "k")
	require.NoError(suite.T(), err)
	cal, _ := found.Profile.Get(nutrition.Calories)
	assert.Equal(suite.T(), 200.0, cal)
	assert.Equal(suite.T(), outbound.SourceDeterministic, found.Source)

	count, err := suite.repo.Count(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), count)
}

func (suite *NutritionEstimateRepositoryTestSuite) TestFindMissing() {
	_, err := suite.repo.FindByKey(suite.ctx, "nope")

	assert.ErrorIs(suite.T(), err, outbound.ErrKeyNotFound)
}

func (suite *NutritionEstimateRepositoryTestSuite) TestDeleteOlderThan() {
	require.NoError(suite.T(), suite.repo.Upsert(suite.ctx, estimate("old", 1)))
	suite.now = suite.now.Add(48 * time.Hour)
	require.NoError(suite.T(), suite.repo.Upsert(suite.ctx, estimate("fresh", 2)))

	n, err := suite.repo.DeleteOlderThan(suite.ctx, suite.now.Add(-24*time.Hour))

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), n)
	_, err = suite.repo.FindByKey(suite.ctx, "old")
	assert.ErrorIs(suite.T(), err, outbound.ErrKeyNotFound)
	_, err = suite.repo.FindByKey(suite.ctx, "fresh")
	assert.NoError(suite.T(), err)
}

func (suite *NutritionEstimateRepositoryTestSuite) TestPing() {
	assert.NoError(suite.T(), suite.repo.Ping(suite.ctx))
}

func TestNutritionEstimateRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(NutritionEstimateRepositoryTestSuite))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, zaptest.NewLogger(t))

	assert.ErrorContains(t, err, "unsupported database driver")
}
