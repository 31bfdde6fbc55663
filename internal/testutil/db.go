// Package testutil provides database helpers for integration tests. The
// tests expect a PostgreSQL instance reachable with the docker-compose
// defaults, overridable through the usual DATABASE_* variables.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bharatprops/lifecycle-api/internal/database"
	"github.com/bharatprops/lifecycle-api/internal/domain"
)

// SetupTestDB connects to the test database and migrates the schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "lifecycle_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "lifecycle_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "lifecycle")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "Failed to connect to test database. Ensure PostgreSQL is running.")

	require.NoError(t, database.AutoMigrate(db))

	return db
}

// SetupCleanTestDB connects and wipes all lifecycle tables first
func SetupCleanTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := SetupTestDB(t)
	CleanupTestData(t, db)
	return db
}

// CleanupTestData deletes test rows from all tables, children first
func CleanupTestData(t *testing.T, db *gorm.DB) {
	t.Helper()
	tables := []string{
		"stage_history",
		"activities",
		"contacts",
		"engine_settings",
		"leads",
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IS NOT NULL", table)).Error; err != nil {
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// CreateTestLead inserts a lead with a unique mobile number
func CreateTestLead(t *testing.T, db *gorm.DB, name string) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		Name:   name,
		Mobile: uniqueMobile(),
		Email:  fmt.Sprintf("%d@example.com", rand.Int63()),
		Requirement: domain.Requirement{
			PropertyType: "Apartment",
			Location:     "Whitefield",
		},
		Budget:      7500000,
		BudgetMatch: domain.BudgetMatchPerfect,
		Timeline:    domain.TimelineOneMonth,
		Source:      "Walk-In",
		Stage:       domain.StageNew,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// CreateTestActivity inserts a completed activity on a lead
func CreateTestActivity(t *testing.T, db *gorm.DB, lead *domain.Lead, actType, purpose, outcome string, occurredAt time.Time) *domain.Activity {
	t.Helper()
	activity := &domain.Activity{
		LeadID:     lead.ID,
		Type:       actType,
		Purpose:    purpose,
		Outcome:    outcome,
		Status:     domain.ActivityStatusCompleted,
		OccurredAt: occurredAt,
	}
	require.NoError(t, db.Create(activity).Error)
	return activity
}

func uniqueMobile() string {
	// Last 9 digits of nanoseconds plus a random digit keeps it inside
	// varchar(20) and collision-free within a test run
	return fmt.Sprintf("+91%d%09d", rand.Intn(9)+1, time.Now().UnixNano()%1000000000)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
