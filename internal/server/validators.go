package server

import (
	"fmt"
	"sync"

	"engagement-pulse/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// enumRule собирает валидатор для строкового перечисления.
func enumRule[T ~string](valid func(T) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return valid(T(fl.Field().String()))
	}
}

// RegisterValidators добавляет в движок gin правила для перечислений моделей.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		rules := map[string]validator.Func{
			"rag":              enumRule(models.RAGStatus.Valid),
			"severity":         enumRule(models.IssueSeverity.Valid),
			"level":            enumRule(models.Level.Valid),
			"milestone_status": enumRule(models.MilestoneStatus.Valid),
			"risk_status":      enumRule(models.RiskStatus.Valid),
			"risk_category":    enumRule(models.RiskCategory.Valid),
			"issue_status":     enumRule(models.IssueStatus.Valid),
			"contact_type":     enumRule(models.ContactType.Valid),
			"sentiment":        enumRule(models.Sentiment.Valid),
			"role":             enumRule(models.Role.Valid),
		}
		for tag, fn := range rules {
			if err = v.RegisterValidation(tag, fn); err != nil {
				err = fmt.Errorf("register validator %s: %w", tag, err)
				return
			}
		}
	})
	return err
}
