package models

import (
	"github.com/go-playground/validator"
)

// AnswerImage is the metadata row for one uploaded answer image. FileName
// doubles as the blob key inside the configured container.
type AnswerImage struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	FileName string `json:"file_name" gorm:"not null" validate:"required"`
	URL      string `json:"url" gorm:"column:url;not null" validate:"required,url"`
}

var validate = validator.New()

// Validate checks the required and URL constraints before the row is stored.
func (a *AnswerImage) Validate() error {
	return validate.Struct(a)
}
