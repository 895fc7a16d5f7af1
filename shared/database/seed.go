package database

import (
	"log"
	"time"

	"pressgrid-backend/shared/config"
	"pressgrid-backend/shared/database/models"
	utils "pressgrid-backend/shared/utils/auth"

	"github.com/google/uuid"
)

// SeedDatabase creates a demo organization on the FREE plan with one user
// per role, plus categories, posts and comments to exercise the public API.
// Idempotent: an existing demo organization short-circuits the whole seed.
func SeedDatabase() error {
	cfg := config.GetConfig()

	var existing models.Organization
	if err := DB.Where("slug = ?", "demo-press").First(&existing).Error; err == nil {
		log.Println("✅ Demo organization already exists, skipping seed")
		return nil
	}

	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return err
	}

	periodStart := time.Date(time.Now().UTC().Year(), time.Now().UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	org := models.Organization{
		ID:               uuid.New(),
		Name:             "Demo Press",
		Slug:             "demo-press",
		Status:           "ACTIVE",
		Plan:             models.PlanFree,
		APIKey:           apiKey,
		UsagePeriodStart: periodStart,
	}
	if err := DB.Create(&org).Error; err != nil {
		return err
	}
	log.Printf("✅ Organization created: %s (plan %s)", org.Name, org.Plan)
	log.Printf("🔑 Public API key: %s", apiKey)

	// One user per role
	seedUsers := []struct {
		email string
		first string
		last  string
		role  models.Role
	}{
		{cfg.SuperAdminEmail, "Ada", "Admin", models.RoleOrgAdmin},
		{"editor@pressgrid.io", "Enis", "Editor", models.RoleEditor},
		{"writer@pressgrid.io", "Wera", "Writer", models.RoleWriter},
	}

	users := make(map[models.Role]models.User, len(seedUsers))
	for _, su := range seedUsers {
		hashed, err := utils.HashPassword(cfg.SuperAdminPassword)
		if err != nil {
			return err
		}
		user := models.User{
			ID:             uuid.New(),
			Email:          su.email,
			Password:       hashed,
			FirstName:      su.first,
			LastName:       su.last,
			Status:         "ACTIVE",
			OrganizationID: &org.ID,
			Role:           su.role,
		}
		if err := DB.Create(&user).Error; err != nil {
			return err
		}
		users[su.role] = user
		log.Printf("✅ User created: %s (%s)", user.Email, user.Role)
	}

	// Categories
	news := models.Category{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Name:           "News",
		Slug:           "news",
		Description:    "Platform and product news",
	}
	guides := models.Category{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Name:           "Guides",
		Slug:           "guides",
		Description:    "How-to articles",
	}
	for _, category := range []*models.Category{&news, &guides} {
		if err := DB.Create(category).Error; err != nil {
			return err
		}
	}
	log.Println("✅ Categories created: news, guides")

	// Posts: a featured published post by the editor, a published post by
	// the writer, and a draft that must never surface on the public API.
	now := time.Now().UTC()
	editor := users[models.RoleEditor]
	writer := users[models.RoleWriter]

	posts := []models.Post{
		{
			ID:             uuid.New(),
			OrganizationID: org.ID,
			AuthorID:       editor.ID,
			Title:          "Welcome to Demo Press",
			Slug:           "welcome-to-demo-press",
			Body:           "Demo Press is now live. This post is served through the metered public API.",
			Excerpt:        "Demo Press is now live.",
			Status:         "PUBLISHED",
			Featured:       true,
			CategoryID:     &news.ID,
			PublishedAt:    &now,
		},
		{
			ID:             uuid.New(),
			OrganizationID: org.ID,
			AuthorID:       writer.ID,
			Title:          "Getting Started with the Public API",
			Slug:           "getting-started-with-the-public-api",
			Body:           "Authenticate with your organization API key and read published content.",
			Excerpt:        "Authenticate with your organization API key.",
			Status:         "PUBLISHED",
			CategoryID:     &guides.ID,
			PublishedAt:    &now,
		},
		{
			ID:             uuid.New(),
			OrganizationID: org.ID,
			AuthorID:       writer.ID,
			Title:          "Unfinished Draft",
			Slug:           "unfinished-draft",
			Body:           "Work in progress.",
			Status:         "DRAFT",
		},
	}
	for i := range posts {
		if err := DB.Create(&posts[i]).Error; err != nil {
			return err
		}
	}
	log.Printf("✅ Posts created: %d", len(posts))

	// A couple of comments on the welcome post, one hidden
	comments := []models.Comment{
		{
			ID:             uuid.New(),
			PostID:         posts[0].ID,
			OrganizationID: org.ID,
			AuthorName:     "Reader One",
			AuthorEmail:    "reader1@example.com",
			Body:           "Congrats on the launch!",
			Status:         "VISIBLE",
		},
		{
			ID:             uuid.New(),
			PostID:         posts[0].ID,
			OrganizationID: org.ID,
			AuthorName:     "Spam Bot",
			Body:           "Buy cheap widgets",
			Status:         "HIDDEN",
		},
	}
	for i := range comments {
		if err := DB.Create(&comments[i]).Error; err != nil {
			return err
		}
	}
	log.Printf("✅ Comments created: %d", len(comments))

	// Fresh usage row for the current period
	usage := models.APIKeyUsage{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		PeriodStart:    periodStart,
		RequestCount:   0,
		LastResetAt:    now,
	}
	if err := DB.Create(&usage).Error; err != nil {
		return err
	}
	log.Println("✅ Usage counter initialized")

	return nil
}
