package main

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/services"
)

func main() {
	dbPath := os.Getenv("NPG_DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/neuroguard.db"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.App{},
		&models.PermissionGrant{},
		&models.AuditEntry{},
		&models.ThreatEvent{},
		&models.Setting{},
		&models.Notification{},
		&models.NotificationProvider{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Println("✓ Database migrated successfully")

	audit := services.NewAuditService(db)
	perms := services.NewPermissionService(db, audit)

	// Demo apps with the kind of grants a fresh install should showcase.
	seedApps := []struct {
		id    string
		name  string
		perms []models.PermissionType
	}{
		{"neurofit-coach", "NeuroFit Coach", []models.PermissionType{models.PermissionFocusLevel}},
		{"mindwave-games", "MindWave Games", []models.PermissionType{models.PermissionMotorIntent, models.PermissionFocusLevel}},
		{"calm-companion", "Calm Companion", []models.PermissionType{models.PermissionEmotionalState}},
		{"labbench-recorder", "LabBench Recorder", []models.PermissionType{models.PermissionFullSpectrum}},
	}

	for _, app := range seedApps {
		for _, p := range app.perms {
			if err := perms.Grant(app.id, app.name, p, "seed"); err != nil {
				log.Fatalf("Failed to grant %s to %s: %v", p, app.id, err)
			}
		}
		fmt.Printf("✓ Seeded app %s with %d permission(s)\n", app.id, len(app.perms))
	}

	// A disabled example provider so the notifications UI has something to show.
	provider := models.NotificationProvider{
		Name:              "Example Discord",
		Type:              "discord",
		URL:               "discord://token@channel",
		Enabled:           false,
		NotifyThreats:     true,
		NotifyPrivacy:     true,
		NotifyPermissions: false,
	}
	if err := db.Where("name = ?", provider.Name).FirstOrCreate(&provider).Error; err != nil {
		log.Fatalf("Failed to seed notification provider: %v", err)
	}
	fmt.Println("✓ Seeded example notification provider")

	fmt.Println("Done.")
}
