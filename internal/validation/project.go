package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/templui/projectdesk/internal/model"
)

const (
	ProjectNameMinLength        = 3
	ProjectNameMaxLength        = 100
	ProjectDescriptionMaxLength = 2000
)

func ValidateProjectName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return invalid("name", "project name is required")
	}
	if n < ProjectNameMinLength {
		return invalid("name", "project name must be at least 3 characters")
	}
	if n > ProjectNameMaxLength {
		return invalid("name", "project name is too long (max 100 characters)")
	}
	return nil
}

func ValidateProjectDescription(description string) error {
	if utf8.RuneCountInString(description) > ProjectDescriptionMaxLength {
		return invalid("description", "description is too long (max 2000 characters)")
	}
	return nil
}

func ValidateProjectStatus(status string) error {
	if !model.ValidProjectStatus(status) {
		return invalid("status", "status must be one of "+strings.Join(model.ProjectStatuses, ", "))
	}
	return nil
}
