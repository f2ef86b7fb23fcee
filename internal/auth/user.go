package auth

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

var namePattern = regexp.MustCompile(`^[A-Za-z ]+$`)

func validateName(name string) string {
	if len(name) < 2 || !namePattern.MatchString(name) {
		return "name must be at least 2 characters and contain only letters and spaces"
	}
	return ""
}

// validatePassword: at least 6 characters with an upper case letter, a lower case letter and a digit.
func validatePassword(pw string) string {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len(pw) < 6 || !upper || !lower || !digit {
		return "password must be at least 6 characters and contain upper case, lower case and a number"
	}
	return ""
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

func validatePhone(digits string) string {
	if len(digits) != 10 {
		return "phone must be a 10 digit number"
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// adminLoginEmail lets operators log in with a bare username.
func adminLoginEmail(username string) string {
	u := normalizeEmail(username)
	if strings.Contains(u, "@") {
		return u
	}
	return fmt.Sprintf("%s@chipsstore.com", u)
}
