package database

import (
	"context"
	"errors"
	"fmt"

	"budgettracker/logging"
	"budgettracker/models"
	"budgettracker/store"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the administrator account when no user owns email yet.
// It reports whether an account was created.
func SeedAdmin(ctx context.Context, users store.Users, email, password string) (bool, error) {
	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	admin := &models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return false, err
	}

	logging.FromContext(ctx).
		WithField(logging.FieldComponent, logging.ComponentStorage).
		WithField(logging.FieldUserID, admin.ID).
		Infof("Default admin user created (email: %s)", admin.Email)
	return true, nil
}

type demoExpense struct {
	amount      float64
	description string
	category    models.Category
}

type demoProject struct {
	name        string
	budget      float64
	description string
	status      models.ProjectStatus
	expenses    []demoExpense
}

var demoProjects = []demoProject{
	{
		name: "Refonte Site Web", budget: 50000, status: models.StatusActive,
		description: "Modernisation complète du site corporate avec nouveau design et optimisation SEO",
		expenses: []demoExpense{
			{15000, "Campagne Google Ads pour le lancement", models.CategoryMarketing},
			{18000, "Développement frontend React et intégration API", models.CategoryDevelopment},
			{9000, "Design UI/UX Figma et prototypage", models.CategoryDesign},
		},
	},
	{
		name: "Application Mobile iOS", budget: 80000, status: models.StatusActive,
		description: "Développement d'une application mobile native pour iOS avec React Native",
		expenses: []demoExpense{
			{45000, "Développement application React Native iOS et Android", models.CategoryDevelopment},
			{12000, "Design interface mobile et animations", models.CategoryDesign},
			{8000, "Hébergement AWS et configuration CI/CD", models.CategoryInfrastructure},
			{15000, "Campagne Instagram et TikTok pour le lancement", models.CategoryMarketing},
			{15000, "Tests utilisateurs et corrections bugs", models.CategoryDevelopment},
		},
	},
	{
		name: "Campagne Marketing Q1", budget: 30000, status: models.StatusActive,
		description: "Campagne marketing digital pour le premier trimestre",
		expenses: []demoExpense{
			{5000, "Publicité Facebook Ads janvier", models.CategoryMarketing},
			{4000, "Création de contenu SEO et articles blog", models.CategoryMarketing},
			{3000, "Design graphiques réseaux sociaux", models.CategoryDesign},
		},
	},
	{
		name: "Migration Infrastructure Cloud", budget: 45000, status: models.StatusActive,
		description: "Migration de l'infrastructure on-premise vers AWS",
		expenses: []demoExpense{
			{18000, "Abonnement AWS pour infrastructure cloud", models.CategoryInfrastructure},
			{12000, "Développement scripts migration et automatisation", models.CategoryDevelopment},
			{8000, "Configuration sécurité et backup automatique", models.CategoryInfrastructure},
		},
	},
	{
		name: "Formation Équipe Dev", budget: 15000, status: models.StatusCompleted,
		description: "Programme de formation continue pour l'équipe de développement",
		expenses: []demoExpense{
			{8000, "Formation React avancé et TypeScript", models.CategoryHR},
			{4500, "Certification AWS Solutions Architect", models.CategoryHR},
			{2000, "Livres et ressources formation continue", models.CategoryHR},
		},
	},
	{
		name: "Refonte Identité Visuelle", budget: 25000, status: models.StatusArchived,
		description: "Création nouvelle identité de marque et charte graphique",
		expenses: []demoExpense{
			{12000, "Création logo et charte graphique complète", models.CategoryDesign},
			{8000, "Design supports communication print et digital", models.CategoryDesign},
			{4000, "Photoshop et Illustrator pour assets visuels", models.CategoryDesign},
		},
	},
}

// SeedSummary counts what SeedDemo wrote.
type SeedSummary struct {
	Created  bool
	Projects int
	Expenses int
	Spent    float64
}

// SeedDemo creates a demo user owning a handful of projects in various budget
// states. It does nothing when the demo user already exists.
func SeedDemo(ctx context.Context, s store.Store, email, password string) (SeedSummary, error) {
	var summary SeedSummary

	if _, err := s.Users().FindByEmail(ctx, email); err == nil {
		return summary, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return summary, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return summary, err
	}
	user := &models.User{
		Name:         "Hugo Martin",
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
	}
	if err := s.Users().Create(ctx, user); err != nil {
		return summary, fmt.Errorf("create demo user: %w", err)
	}
	summary.Created = true

	for _, dp := range demoProjects {
		project := &models.Project{
			Name:        dp.name,
			Budget:      dp.budget,
			Description: dp.description,
			Status:      dp.status,
			OwnerID:     user.ID,
			OwnerName:   user.Name,
			OwnerEmail:  user.Email,
		}
		if err := s.Projects().Create(ctx, project); err != nil {
			return summary, fmt.Errorf("create project %q: %w", dp.name, err)
		}
		summary.Projects++

		for _, de := range dp.expenses {
			expense := &models.Expense{
				ProjectID:          project.ID,
				ProjectName:        project.Name,
				Amount:             de.amount,
				Category:           de.category,
				Description:        de.description,
				CreatedByUserID:    user.ID,
				CreatedByUserName:  user.Name,
				CreatedByUserEmail: user.Email,
			}
			if err := s.Expenses().Create(ctx, expense); err != nil {
				return summary, fmt.Errorf("create expense %q: %w", de.description, err)
			}
			summary.Expenses++
			summary.Spent += de.amount
		}
	}
	return summary, nil
}
