package util

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrValidation marca erros de entrada do usuário. Handlers mapeiam qualquer
// erro desta família para resposta 400.
var ErrValidation = errors.New("entrada inválida")

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email obrigatório", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email inválido", ErrValidation)
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: senha deve ter pelo menos 8 caracteres", ErrValidation)
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s obrigatório", ErrValidation, field)
	}
	return nil
}
