// Package seed пишет начальные данные (администратор и демо-набор).
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"engagement-pulse/internal/clock"
	"engagement-pulse/internal/models"
	"engagement-pulse/internal/pulse"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword: пароль всех демо-пользователей.
const DemoPassword = "Demo123!"

// Admin создаёт администратора, если в системе нет ни одного.
func Admin(ctx context.Context, db *gorm.DB, email, password string, log *slog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		// админ уже есть
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Info("created default admin user", "email", email)
	return nil
}

// Demo заполняет базу демо-данными. Повторный вызов ничего не делает,
// если хотя бы один клиент уже есть. Возвращает true, если данные записаны.
func Demo(ctx context.Context, db *gorm.DB, clk clock.Clock, log *slog.Logger) (bool, error) {
	var clients int64
	if err := db.WithContext(ctx).Model(&models.Client{}).Count(&clients).Error; err != nil {
		return false, fmt.Errorf("check existing data: %w", err)
	}
	if clients > 0 {
		log.Info("demo data already seeded")
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash demo password: %w", err)
	}

	now := clk.Now()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range demoData(now, string(hash)) {
			if err := tx.Create(batch).Error; err != nil {
				return fmt.Errorf("seed %T: %w", batch, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	log.Info("demo data seeded")
	return true, nil
}

func ptr[T any](v T) *T { return &v }

func demoData(now time.Time, passwordHash string) []any {
	week := pulse.WeekStart(now)
	day := 24 * time.Hour

	users := []models.User{
		{ID: "user_admin001", Name: "Sarah Mitchell", Email: "sarah.mitchell@firm.com", Role: models.RoleAdmin},
		{ID: "user_lead001", Name: "Michael Chen", Email: "michael.chen@firm.com", Role: models.RoleLead},
		{ID: "user_cons001", Name: "Emily Rodriguez", Email: "emily.rodriguez@firm.com", Role: models.RoleConsultant},
		{ID: "user_cons002", Name: "James Wilson", Email: "james.wilson@firm.com", Role: models.RoleConsultant},
		{ID: "user_cons003", Name: "Priya Sharma", Email: "priya.sharma@firm.com", Role: models.RoleConsultant},
	}
	for i := range users {
		users[i].PasswordHash = passwordHash
		users[i].IsActive = true
	}

	clients := []models.Client{
		{ID: "client_001", ClientName: "TechCorp Industries", Industry: "Technology", PrimaryContactName: "John Smith", PrimaryContactEmail: "john.smith@techcorp.com"},
		{ID: "client_002", ClientName: "HealthPlus Medical", Industry: "Healthcare", PrimaryContactName: "Dr. Lisa Brown", PrimaryContactEmail: "lisa.brown@healthplus.com"},
		{ID: "client_003", ClientName: "Global Finance Corp", Industry: "Financial Services", PrimaryContactName: "Robert Johnson", PrimaryContactEmail: "r.johnson@globalfinance.com"},
	}

	engagements := []models.Engagement{
		{
			ID: "eng_001", ClientID: "client_001", Name: "Digital Transformation Initiative", Code: "TC-DT-2024",
			ConsultantUserID: ptr("user_cons001"),
			StartDate:        now.Add(-60 * day), TargetEndDate: ptr(now.Add(120 * day)),
			RAGStatus:      models.RAGGreen,
			OverallSummary: "Major digital transformation project focusing on cloud migration and process automation.",
			HealthScore:    85,
		},
		{
			ID: "eng_002", ClientID: "client_002", Name: "EHR System Implementation", Code: "HP-EHR-2024",
			ConsultantUserID: ptr("user_cons002"),
			StartDate:        now.Add(-30 * day), TargetEndDate: ptr(now.Add(180 * day)),
			RAGStatus:      models.RAGAmber,
			RAGReason:      "Vendor delays affecting timeline",
			OverallSummary: "Implementing new Electronic Health Records system across 5 hospital locations.",
			HealthScore:    65,
		},
		{
			ID: "eng_003", ClientID: "client_003", Name: "Risk Management Framework", Code: "GF-RMF-2024",
			ConsultantUserID: ptr("user_cons003"),
			StartDate:        now.Add(-90 * day), TargetEndDate: ptr(now.Add(30 * day)),
			RAGStatus:      models.RAGRed,
			RAGReason:      "Critical resource constraints and scope creep",
			OverallSummary: "Developing comprehensive risk management framework for regulatory compliance.",
			HealthScore:    45,
		},
	}
	for i := range engagements {
		engagements[i].IsActive = true
	}

	pulses := []models.WeeklyPulse{
		{
			ID: "pulse_001", EngagementID: "eng_001", ConsultantUserID: "user_cons001",
			RAGStatusThisWeek: models.RAGGreen,
			WhatWentWell:      "Successfully completed cloud migration for 3 business units. Team morale is high.",
			DeliveredThisWeek: "• Migrated CRM to AWS\n• Completed security audit\n• Trained 50 users on new system",
			IssuesFacing:      "Minor integration issues with legacy systems",
			Roadblocks:        "None currently",
			PlanNextWeek:      "• Begin Phase 2 migration\n• Complete documentation\n• Start change management training",
			TimeAllocation:    ptr(45.0),
			Sentiment:         ptr(models.SentimentHigh),
		},
		{
			ID: "pulse_002", EngagementID: "eng_002", ConsultantUserID: "user_cons002",
			RAGStatusThisWeek: models.RAGAmber,
			WhatWentWell:      "Completed requirements gathering for all 5 locations",
			DeliveredThisWeek: "• Requirements documentation\n• Vendor evaluation matrix\n• Initial system configuration",
			IssuesFacing:      "Vendor has delayed delivery by 2 weeks",
			Roadblocks:        "Waiting on vendor hardware shipment",
			PlanNextWeek:      "• Continue parallel testing\n• Escalate vendor delays\n• Begin staff training prep",
			TimeAllocation:    ptr(50.0),
			Sentiment:         ptr(models.SentimentOK),
		},
	}
	for i := range pulses {
		pulses[i].WeekStartDate = week
		pulses[i].WeekEndDate = pulse.WeekEnd(week)
		pulses[i].SubmittedAt = now
	}
	// история для графика RAG
	for i := 1; i < 8; i++ {
		past := week.AddDate(0, 0, -7*i)
		rag := models.RAGRed
		switch i % 3 {
		case 0:
			rag = models.RAGGreen
		case 1:
			rag = models.RAGAmber
		}
		pulses = append(pulses, models.WeeklyPulse{
			ID:                fmt.Sprintf("pulse_hist_%d", i),
			EngagementID:      "eng_003",
			ConsultantUserID:  "user_cons003",
			WeekStartDate:     past,
			WeekEndDate:       pulse.WeekEnd(past),
			RAGStatusThisWeek: rag,
			WhatWentWell:      fmt.Sprintf("Historical pulse %d", i),
			DeliveredThisWeek: fmt.Sprintf("Week %d deliverables", i),
			SubmittedAt:       past.Add(4 * day),
		})
	}

	milestones := []models.Milestone{
		{ID: "ms_001", EngagementID: "eng_001", Title: "Phase 1 Complete", DueDate: now.Add(7 * day), Status: models.MilestoneInProgress, CompletionPercent: 80, Owner: "Emily Rodriguez"},
		{ID: "ms_002", EngagementID: "eng_001", Title: "User Training Complete", DueDate: now.Add(30 * day), Status: models.MilestoneNotStarted, Owner: "Training Team"},
		{ID: "ms_003", EngagementID: "eng_002", Title: "System Go-Live", DueDate: now.Add(60 * day), Status: models.MilestoneAtRisk, CompletionPercent: 30, Owner: "James Wilson"},
		{ID: "ms_004", EngagementID: "eng_003", Title: "Framework Documentation", DueDate: now.Add(14 * day), Status: models.MilestoneBlocked, CompletionPercent: 60, Owner: "Priya Sharma"},
	}

	risks := []models.Risk{
		{ID: "risk_001", EngagementID: "eng_001", Title: "Cloud Cost Overrun", Description: "Potential for cloud costs to exceed budget", Category: models.RiskBudget, Probability: models.LevelMedium, Impact: models.LevelHigh, MitigationPlan: "Implement cost monitoring and alerts", Owner: "Finance Team", Status: models.RiskMitigating},
		{ID: "risk_002", EngagementID: "eng_002", Title: "Vendor Dependency", Description: "Heavy reliance on single vendor for critical components", Category: models.RiskDependency, Probability: models.LevelHigh, Impact: models.LevelHigh, MitigationPlan: "Identify backup vendors", Owner: "James Wilson", Status: models.RiskOpen},
		{ID: "risk_003", EngagementID: "eng_003", Title: "Regulatory Changes", Description: "Upcoming regulatory changes may impact framework", Category: models.RiskScope, Probability: models.LevelHigh, Impact: models.LevelHigh, MitigationPlan: "Monitor regulatory updates weekly", Owner: "Compliance Team", Status: models.RiskOpen},
	}

	issues := []models.Issue{
		{ID: "issue_001", EngagementID: "eng_001", Title: "API Integration Failure", Description: "Third-party API returning intermittent errors", Severity: models.SeverityMedium, Status: models.IssueInProgress, Owner: "Dev Team"},
		{ID: "issue_002", EngagementID: "eng_002", Title: "Hardware Delay", Description: "Critical server hardware delayed by vendor", Severity: models.SeverityHigh, Status: models.IssueOpen, Owner: "James Wilson", DueDate: ptr(now.Add(7 * day))},
		{ID: "issue_003", EngagementID: "eng_003", Title: "Resource Shortage", Description: "Key SME unavailable for next 2 weeks", Severity: models.SeverityCritical, Status: models.IssueOpen, Owner: "Priya Sharma"},
		{ID: "issue_004", EngagementID: "eng_003", Title: "Scope Creep", Description: "Client requesting additional features outside original scope", Severity: models.SeverityHigh, Status: models.IssueOpen, Owner: "Project Manager"},
	}

	contacts := []models.Contact{
		{ID: "contact_001", EngagementID: "eng_001", Name: "John Smith", Title: "CTO", Email: "john.smith@techcorp.com", Phone: "+1-555-0101", Type: models.ContactClient},
		{ID: "contact_002", EngagementID: "eng_001", Name: "AWS Support", Title: "Technical Account Manager", Email: "support@aws.com", Type: models.ContactVendor},
		{ID: "contact_003", EngagementID: "eng_002", Name: "Dr. Lisa Brown", Title: "Chief Medical Officer", Email: "lisa.brown@healthplus.com", Phone: "+1-555-0102", Type: models.ContactClient},
		{ID: "contact_004", EngagementID: "eng_003", Name: "Robert Johnson", Title: "CFO", Email: "r.johnson@globalfinance.com", Phone: "+1-555-0103", Type: models.ContactClient},
	}

	return []any{&users, &clients, &engagements, &pulses, &milestones, &risks, &issues, &contacts}
}
