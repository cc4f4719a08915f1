package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/legaltrack-ph/legaltrack/backend/internal/config"
	"github.com/legaltrack-ph/legaltrack/backend/internal/database"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

// Seeds the database with the super admin and a demo staff roster covering
// every pipeline role, plus published FAQ entries. Safe to re-run: existing
// accounts are left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	now := time.Now()
	seedUsers := []struct {
		seq      int
		email    string
		name     string
		role     string
		lgu      string
		password string
	}{
		{1, cfg.AdminEmailAlias, "System Administrator", models.RoleSuperAdmin, "", "ChangeMe123!"},
		{1, "lgu.malolos@example.gov.ph", "Malolos LGU Admin", models.RoleLGUAdmin, "Malolos", "LguDemo123!"},
		{1, "receiving@example.gov.ph", "Receiving Officer", models.RoleCapitolReceiving, "", "RecDemo123!"},
		{1, "examiner@example.gov.ph", "Case Examiner", models.RoleCapitolExaminer, "", "ExmDemo123!"},
		{1, "approver@example.gov.ph", "Case Approver", models.RoleCapitolApprover, "", "AprDemo123!"},
		{1, "numbering@example.gov.ph", "Numbering Officer", models.RoleCapitolNumberer, "", "NumDemo123!"},
		{1, "releasing@example.gov.ph", "Releasing Officer", models.RoleCapitolReleaser, "", "RelDemo123!"},
	}

	for _, su := range seedUsers {
		var existing models.User
		if err := db.Where("email = ?", su.email).First(&existing).Error; err == nil {
			fmt.Printf("- %s already exists, skipping\n", su.email)
			continue
		}

		user := models.User{
			StaffID:         models.FormatStaffID(su.role, su.seq),
			Email:           su.email,
			FullName:        su.name,
			Role:            su.role,
			LGUMunicipality: su.lgu,
			AccountStatus:   models.AccountActive,
			ActivatedAt:     &now,
		}
		if err := user.SetPassword(su.password); err != nil {
			log.Fatal("Failed to hash password:", err)
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatal("Failed to create user:", err)
		}
		fmt.Printf("✓ Created %s (%s / %s)\n", su.name, user.StaffID, su.password)
	}

	faqs := []models.FAQItem{
		{Question: "How do I track my case?", Answer: "Enter the tracking number from your submission receipt on the tracker page. It starts with PAS.", SortOrder: 1},
		{Question: "What do the statuses mean?", Answer: "Pending means the capitol has not yet received the physical documents. Under Review means an examiner is evaluating the case. Released means the documents are ready for pickup.", SortOrder: 2},
		{Question: "My case was returned. What now?", Answer: "Contact your municipal assessor's office. They can see the return reason, correct the submission and resubmit it under the same tracking number.", SortOrder: 3},
	}
	for _, faq := range faqs {
		var existing models.FAQItem
		if err := db.Where("question = ?", faq.Question).First(&existing).Error; err == nil {
			continue
		}
		faq.IsPublished = true
		if err := db.Create(&faq).Error; err != nil {
			log.Fatal("Failed to create FAQ:", err)
		}
		fmt.Printf("✓ Created FAQ: %s\n", faq.Question)
	}

	// One demo draft so the UI has something to show on first boot.
	var lgu models.User
	if err := db.Where("role = ?", models.RoleLGUAdmin).First(&lgu).Error; err == nil {
		var count int64
		db.Model(&models.Case{}).Where("submitted_by_id = ?", lgu.ID).Count(&count)
		if count == 0 {
			kase := models.Case{
				DraftID:         uuid.NewString(),
				Status:          models.StatusDraft,
				ClientFirstName: "Juan",
				ClientLastName:  "Dela Cruz",
				ClientNumber:    "09171234567",
				CaseType:        models.CaseTypeTransferOwnership,
				SubmittedByID:   &lgu.ID,
			}
			for _, req := range models.CaseTypeRequirements(kase.CaseType) {
				kase.Checklist = append(kase.Checklist, models.ChecklistItem{DocType: req, Required: true})
			}
			if err := db.Create(&kase).Error; err != nil {
				log.Fatal("Failed to create demo case:", err)
			}
			fmt.Println("✓ Created demo draft case")
		}
	}

	fmt.Println("Seeding complete")
}
