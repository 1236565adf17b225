package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/unitrack/core"
)

const DefaultUniversity = "My University"

// User is the student owning every other record.
type User struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	StudentID  string    `json:"student_id"`
	University string    `json:"university"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name       string `json:"name" validate:"required"`
	StudentID  string `json:"student_id" validate:"required,max=50"`
	University string `json:"university"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanName(nu.Name)
	nu.StudentID = core.CleanString(nu.StudentID)
	nu.University = core.CleanName(nu.University)
	if nu.University == "" {
		nu.University = DefaultUniversity
	}
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// UpdateUser is the full replacement of an existing User.
type UpdateUser struct {
	Name       string `json:"name" validate:"required"`
	StudentID  string `json:"student_id" validate:"required,max=50"`
	University string `json:"university" validate:"required"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	uu.Name = core.CleanName(uu.Name)
	uu.StudentID = core.CleanString(uu.StudentID)
	uu.University = core.CleanName(uu.University)
	return validate.Struct(uu)
}
