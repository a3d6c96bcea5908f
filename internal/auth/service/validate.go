package service

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator"
)

const (
	MinPasswordLength = 10
	MaxPasswordLength = 128
	maxNameLength     = 100
)

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email,max=254") == nil
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && utf8.RuneCountInString(name) <= maxNameLength
}

func validPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	return n >= MinPasswordLength && n <= MaxPasswordLength
}
