package validator

import (
	"github.com/go-playground/validator/v10"

	"projecthub/internal/model"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterValidation("member_role", validateMemberRole)
	v.RegisterValidation("project_status", validateProjectStatus)
	v.RegisterValidation("task_status", validateTaskStatus)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func validateMemberRole(fl validator.FieldLevel) bool {
	return model.Role(fl.Field().String()).Valid()
}

func validateProjectStatus(fl validator.FieldLevel) bool {
	return model.ProjectStatus(fl.Field().String()).Valid()
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return model.TaskStatus(fl.Field().String()).Valid()
}
