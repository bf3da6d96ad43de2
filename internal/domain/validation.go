package domain

import (
	"fmt"
	"strings"
)

func ValidateBookInput(title, author string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidInput)
	}
	return nil
}

func ValidateSaleInput(price int, condition string) error {
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if strings.TrimSpace(condition) == "" {
		return fmt.Errorf("%w: condition is required", ErrInvalidInput)
	}
	return nil
}

func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(password) < 4 {
		return fmt.Errorf("%w: password too short", ErrInvalidInput)
	}
	return nil
}
