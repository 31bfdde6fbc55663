package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/bharatprops/lifecycle-api/internal/config"
	"github.com/bharatprops/lifecycle-api/internal/database"
	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/engine"
	"github.com/bharatprops/lifecycle-api/internal/repository"
)

// Demo-data seeder for local development. Generates leads spread across
// the pipeline with plausible activity trails, then caches an initial
// score for each so list views render something meaningful immediately.

var leadSources = []string{
	"Walk-In", "Old Client", "Friends", "Channel Partner", "Hoarding",
	"Own Website", "99acres", "MagicBricks", "WhatsApp", "Cold Calling",
	"Google", "Social Media",
}

var propertyTypes = []string{"Apartment", "Villa", "Plot", "Commercial"}

var locations = []string{
	"Whitefield", "Sarjapur Road", "Electronic City", "Hebbal",
	"Yelahanka", "Kanakapura Road", "HSR Layout", "Devanahalli",
}

var seedStages = []domain.LeadStage{
	domain.StageNew, domain.StageNew, domain.StageNew,
	domain.StageProspect, domain.StageProspect,
	domain.StageQualified, domain.StageQualified,
	domain.StageOpportunity,
	domain.StageNegotiation,
	domain.StageBooked,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	count := flag.Int("count", 50, "number of leads to generate")
	seed := flag.Int64("seed", 0, "gofakeit seed (0 for random)")
	flag.Parse()

	gofakeit.Seed(*seed)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.App.Environment != "development" {
		return fmt.Errorf("seeder refuses to run outside development (environment is %q)", cfg.App.Environment)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	ctx := context.Background()
	leadRepo := repository.NewLeadRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	scoringCfg := engine.DefaultScoringConfig()

	created := 0
	for i := 0; i < *count; i++ {
		lead := generateLead()
		if err := leadRepo.Create(ctx, lead); err != nil {
			// Mobile collisions happen with random data, skip and move on
			continue
		}

		activities := generateActivities(lead)
		for j := range activities {
			if err := activityRepo.Create(ctx, &activities[j]); err != nil {
				return fmt.Errorf("failed to create activity: %w", err)
			}
			if err := leadRepo.TouchLastActivity(ctx, lead.ID, activities[j].OccurredAt); err != nil {
				return fmt.Errorf("failed to touch lead: %w", err)
			}
		}

		result, err := engine.CalculateLeadScore(lead, activities, scoringCfg)
		if err == nil {
			_ = leadRepo.UpdateCachedScore(ctx, lead.ID, result.Total, result.Temperature.Label)
		}
		created++
	}

	fmt.Printf("Seeded %d leads\n", created)
	return nil
}

func generateLead() *domain.Lead {
	stage := seedStages[gofakeit.Number(0, len(seedStages)-1)]
	createdDaysAgo := gofakeit.Number(1, 60)
	now := time.Now().UTC()

	lead := &domain.Lead{
		Name:   gofakeit.Name(),
		Mobile: "+91" + gofakeit.Numerify("9#########"),
		Email:  gofakeit.Email(),
		Requirement: domain.Requirement{
			PropertyType: gofakeit.RandomString(propertyTypes),
			Location:     gofakeit.RandomString(locations),
		},
		Budget:      float64(gofakeit.Number(30, 250)) * 100000,
		BudgetMatch: domain.BudgetMatch(gofakeit.RandomString([]string{
			string(domain.BudgetMatchPerfect),
			string(domain.BudgetMatchSlightlyLower),
			string(domain.BudgetMatchMismatch),
		})),
		Timeline: domain.Timeline(gofakeit.RandomString([]string{
			string(domain.TimelineUrgent),
			string(domain.TimelineFifteenDays),
			string(domain.TimelineOneMonth),
			string(domain.TimelineThreeMonths),
			string(domain.TimelineNotConfirmed),
		})),
		Source:    gofakeit.RandomString(leadSources),
		Stage:     stage,
		OwnerID:   gofakeit.UUID(),
		OwnerName: gofakeit.Name(),
	}

	if gofakeit.Bool() {
		lead.Tags = []string{gofakeit.RandomString([]string{"investor", "end user", "nri", "resale interest"})}
	}

	created := now.AddDate(0, 0, -createdDaysAgo)
	lead.CreatedAt = created
	lead.UpdatedAt = created
	if stage != domain.StageNew {
		changed := created.AddDate(0, 0, gofakeit.Number(0, createdDaysAgo/2))
		lead.StageChangedAt = &changed
	}

	return lead
}

func generateActivities(lead *domain.Lead) []domain.Activity {
	n := gofakeit.Number(0, 5)
	activities := make([]domain.Activity, 0, n)

	for i := 0; i < n; i++ {
		kind := gofakeit.Number(0, 3)
		var actType, purpose, outcome string
		switch kind {
		case 0:
			actType, purpose = "Call", "Introduction / First Contact"
			outcome = gofakeit.RandomString([]string{"Connected", "No Answer", "Not Interested"})
		case 1:
			actType, purpose = "WhatsApp", "Follow-up"
			outcome = gofakeit.RandomString([]string{"Replied", "No Response"})
		case 2:
			actType, purpose = "Site Visit", "Follow-up / Site Visit"
			outcome = gofakeit.RandomString([]string{"Scheduled", "Completed", "No Show"})
		default:
			actType, purpose = "Email", "Brochure / Offer"
			outcome = gofakeit.RandomString([]string{"Opened", "Bounced"})
		}

		occurred := lead.CreatedAt.AddDate(0, 0, gofakeit.Number(0, 30))
		if occurred.After(time.Now().UTC()) {
			occurred = time.Now().UTC()
		}

		activities = append(activities, domain.Activity{
			LeadID:      lead.ID,
			Type:        actType,
			Purpose:     purpose,
			Outcome:     outcome,
			Status:      domain.ActivityStatusCompleted,
			OccurredAt:  occurred,
			CreatorID:   lead.OwnerID,
			CreatorName: lead.OwnerName,
		})
	}

	return activities
}
