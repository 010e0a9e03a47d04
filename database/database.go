package database

import (
	"fmt"
	"log"

	config "github.com/anjiri1684/review_scheduler/configs"
	"github.com/anjiri1684/review_scheduler/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

// constraints back the application-level checks so that two writers racing
// past them still cannot both succeed.
var constraints = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_window_bookable_exact
		ON availability_windows (reviewer_id, day_key, start_time, end_time)
		WHERE slot_type = 'bookable'`,
	`DO $$ BEGIN
		ALTER TABLE availability_windows ADD CONSTRAINT ex_window_bookable_overlap
			EXCLUDE USING gist (
				reviewer_id WITH =,
				day_key WITH =,
				int4range(start_minute, end_minute) WITH &&
			) WHERE (slot_type = 'bookable');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	`DO $$ BEGIN
		ALTER TABLE availability_windows ADD CONSTRAINT ex_window_break_overlap
			EXCLUDE USING gist (
				reviewer_id WITH =,
				day_key WITH =,
				int4range(start_minute, end_minute) WITH &&
			) WHERE (slot_type = 'break');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_session_reviewer_slot
		ON review_sessions (reviewer_id, scheduled_at)
		WHERE status IN ('pending', 'accepted', 'scheduled')`,
}

func Migrate() {
	if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		log.Printf("⚠️ Could not enable btree_gist, overlap exclusion will be skipped: %v", err)
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.AvailabilityWindow{},
		&models.ReviewSession{},
		&models.ReviewerEvaluation{},
		&models.FinalEvaluation{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}

	for _, stmt := range constraints {
		if err := DB.Exec(stmt).Error; err != nil {
			log.Printf("⚠️ Failed to apply constraint: %v", err)
		}
	}
	fmt.Println("✅ Database migration successful")
}
