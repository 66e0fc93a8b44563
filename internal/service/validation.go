package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Genders are the values offered by the registration and profile forms.
var Genders = []string{"Male", "Female", "Other"}

const minYearOfBirth = 1900

// RegistrationInput is the sign-up form.
type RegistrationInput struct {
	Name            string `validate:"required,max=100"`
	Email           string `validate:"required,email,max=254"`
	Password        string `validate:"required,min=6,max=72"`
	ConfirmPassword string `validate:"required"`
	YearOfBirth     int    `validate:"required"`
	Gender          string `validate:"required,oneof=Male Female Other"`
}

// ProfileInput is the editable part of a user's profile.
type ProfileInput struct {
	Name        string `validate:"required,max=100"`
	Email       string `validate:"required,email,max=254"`
	YearOfBirth int    `validate:"required"`
	Gender      string `validate:"required,oneof=Male Female Other"`
}

// PerfumeInput is the admin add/edit perfume form.
type PerfumeInput struct {
	Name           string   `validate:"required,max=200"`
	BrandID        string   `validate:"max=100"`
	Price          float64  `validate:"gte=0"`
	Concentration  string   `validate:"max=100"`
	Description    string   `validate:"max=5000"`
	Ingredients    []string `validate:"max=50,dive,max=100"`
	Volume         int      `validate:"gte=0"`
	TargetAudience string   `validate:"max=100"`
	Category       string   `validate:"max=100"`
	ImageURL       string   `validate:"omitempty,url,max=2000"`
}

// BrandInput is the admin add/edit brand form.
type BrandInput struct {
	Name string `validate:"required,max=200"`
}

// CommentInput is a review posted on a perfume page.
type CommentInput struct {
	Content string `validate:"required,max=2000"`
	Rating  int    `validate:"min=1,max=5"`
}

var fieldLabels = map[string]string{
	"Name":           "Name",
	"Email":          "Email",
	"Password":       "Password",
	"YearOfBirth":    "Year of birth",
	"Gender":         "Gender",
	"BrandID":        "Brand",
	"Price":          "Price",
	"Concentration":  "Concentration",
	"Description":    "Description",
	"Ingredients":    "Ingredients",
	"Volume":         "Volume",
	"TargetAudience": "Target audience",
	"Category":       "Category",
	"ImageURL":       "Image URL",
	"Content":        "Review",
	"Rating":         "Rating",
}

// validateStruct runs the struct tags and converts the first failure into a
// ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate input: %w", err)
	}
	return invalid(fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.StructField()]
	if !ok {
		label = fe.StructField()
	}
	if fe.StructField() == "Rating" {
		return "Rating must be between 1 and 5"
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "url":
		return label + " must be a valid URL"
	case "oneof":
		return label + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.StructField() == "Password" {
			return "Password must be at least 6 characters"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long", label)
	case "gte":
		return fmt.Sprintf("%s cannot be negative", label)
	default:
		return label + " is invalid"
	}
}

// validateRegistration checks the sign-up form in the order the form
// reports problems: missing fields, password mismatch, password length,
// then the remaining field rules.
func validateRegistration(in RegistrationInput, now time.Time) error {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" || in.YearOfBirth == 0 || in.Gender == "" {
		return invalid("All fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return invalid("Passwords do not match")
	}
	if len(in.Password) < 6 {
		return invalid("Password must be at least 6 characters")
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	return validateYearOfBirth(in.YearOfBirth, now)
}

func validateProfile(in ProfileInput, now time.Time) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	return validateYearOfBirth(in.YearOfBirth, now)
}

func validateYearOfBirth(year int, now time.Time) error {
	if year < minYearOfBirth || year > now.Year() {
		return invalid(fmt.Sprintf("Year of birth must be between %d and %d", minYearOfBirth, now.Year()))
	}
	return nil
}

// ParseIngredients splits a comma-separated ingredient list, trimming
// whitespace and dropping empty entries.
func ParseIngredients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Slugify derives a URL-friendly identifier from a perfume name. Accented
// letters are folded to their base letter before non-alphanumerics collapse
// into dashes.
func Slugify(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == '\'' || r == '’':
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
