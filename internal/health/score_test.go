package health

import (
	"testing"

	"engagement-pulse/internal/models"

	"github.com/stretchr/testify/assert"
)

func issue(sev models.IssueSeverity, status models.IssueStatus) models.Issue {
	return models.Issue{Severity: sev, Status: status}
}

func highHigh() models.Risk {
	return models.Risk{Status: models.RiskOpen, Probability: models.LevelHigh, Impact: models.LevelHigh}
}

func TestScore_RedWithIssuesRiskAndNoPulse(t *testing.T) {
	e := &models.Engagement{RAGStatus: models.RAGRed}
	issues := []models.Issue{
		issue(models.SeverityCritical, models.IssueOpen),
		issue(models.SeverityHigh, models.IssueInProgress),
	}

	// 100 - 35 - 15 - 8 - 10 - 10
	assert.Equal(t, 22, Score(e, issues, []models.Risk{highHigh()}, false))
}

func TestScore_HealthyEngagement(t *testing.T) {
	e := &models.Engagement{RAGStatus: models.RAGGreen}
	assert.Equal(t, 100, Score(e, nil, nil, true))
}

func TestScore_Penalties(t *testing.T) {
	tests := []struct {
		name   string
		rag    models.RAGStatus
		issues []models.Issue
		risks  []models.Risk
		pulse  bool
		want   int
	}{
		{"amber", models.RAGAmber, nil, nil, true, 85},
		{"missing pulse", models.RAGGreen, nil, nil, false, 90},
		{"medium issue", models.RAGGreen, []models.Issue{issue(models.SeverityMedium, models.IssueBlocked)}, nil, true, 96},
		{"low issue", models.RAGGreen, []models.Issue{issue(models.SeverityLow, models.IssueOpen)}, nil, true, 98},
		{"unknown severity counts as low", models.RAGGreen, []models.Issue{issue("", models.IssueOpen)}, nil, true, 98},
		{"resolved issue ignored", models.RAGGreen, []models.Issue{issue(models.SeverityCritical, models.IssueResolved)}, nil, true, 100},
		{"closed issue ignored", models.RAGGreen, []models.Issue{issue(models.SeverityHigh, models.IssueClosed)}, nil, true, 100},
		{"mitigating risk ignored", models.RAGGreen, nil, []models.Risk{{Status: models.RiskMitigating, Probability: models.LevelHigh, Impact: models.LevelHigh}}, true, 100},
		{"high/medium risk ignored", models.RAGGreen, nil, []models.Risk{{Status: models.RiskOpen, Probability: models.LevelHigh, Impact: models.LevelMedium}}, true, 100},
		{"two high/high risks", models.RAGGreen, nil, []models.Risk{highHigh(), highHigh()}, true, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &models.Engagement{RAGStatus: tt.rag}
			assert.Equal(t, tt.want, Score(e, tt.issues, tt.risks, tt.pulse))
		})
	}
}

func TestScore_ClampedAtZero(t *testing.T) {
	e := &models.Engagement{RAGStatus: models.RAGRed}
	var issues []models.Issue
	for i := 0; i < 10; i++ {
		issues = append(issues, issue(models.SeverityCritical, models.IssueOpen))
	}

	assert.Equal(t, 0, Score(e, issues, []models.Risk{highHigh(), highHigh()}, false))
}

func TestScore_MonotonicInRAG(t *testing.T) {
	issues := []models.Issue{issue(models.SeverityHigh, models.IssueOpen)}
	risks := []models.Risk{highHigh()}

	for _, pulse := range []bool{true, false} {
		prev := 101
		for _, rag := range models.RAGStatuses {
			got := Score(&models.Engagement{RAGStatus: rag}, issues, risks, pulse)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
			assert.LessOrEqual(t, got, prev, "score must not improve as RAG worsens (%s)", rag)
			prev = got
		}
	}
}

func TestScore_Idempotent(t *testing.T) {
	e := &models.Engagement{RAGStatus: models.RAGAmber}
	issues := []models.Issue{issue(models.SeverityMedium, models.IssueOpen)}

	first := Score(e, issues, []models.Risk{highHigh()}, false)
	second := Score(e, issues, []models.Risk{highHigh()}, false)
	assert.Equal(t, first, second)
}
