// Package health считает оценку здоровья engagement (0..100).
package health

import "engagement-pulse/internal/models"

const (
	maxScore = 100

	amberPenalty = 15
	redPenalty   = 35

	criticalIssuePenalty = 15
	highIssuePenalty     = 8
	mediumIssuePenalty   = 4
	lowIssuePenalty      = 2

	highHighRiskPenalty = 10
	missingPulsePenalty = 10
)

// Score не обращается к БД и часам, одинаковые входы дают одинаковый результат.
// Закрытые проблемы и риски, не попадающие в OPEN+HIGH/HIGH, игнорируются.
func Score(e *models.Engagement, openIssues []models.Issue, openHighHighRisks []models.Risk, hasPulseThisWeek bool) int {
	score := maxScore

	switch e.RAGStatus {
	case models.RAGAmber:
		score -= amberPenalty
	case models.RAGRed:
		score -= redPenalty
	}

	for _, issue := range openIssues {
		if !issue.Status.Open() {
			continue
		}
		score -= issuePenalty(issue.Severity)
	}

	for _, risk := range openHighHighRisks {
		if risk.HighHigh() {
			score -= highHighRiskPenalty
		}
	}

	if !hasPulseThisWeek {
		score -= missingPulsePenalty
	}

	return max(0, score)
}

func issuePenalty(s models.IssueSeverity) int {
	switch s {
	case models.SeverityCritical:
		return criticalIssuePenalty
	case models.SeverityHigh:
		return highIssuePenalty
	case models.SeverityMedium:
		return mediumIssuePenalty
	default:
		return lowIssuePenalty
	}
}
