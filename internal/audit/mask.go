package audit

import (
	"regexp"
	"strings"
)

// RedactionMarker substitui integralmente valores de credenciais.
const RedactionMarker = "[REDACTED]"

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s().-]{8,}$`)
)

// credentialKeys marca campos que nunca podem aparecer, nem parcialmente.
var credentialKeys = []string{"password", "senha", "secret", "token"}

// MaskPII devolve uma cópia mascarada do metadata. O mapa recebido permanece
// intacto para os demais consumidores da mesma requisição.
//
// Regras:
//   - valores com formato de e-mail: primeiro caractere + **** + domínio;
//   - valores com formato de telefone: todos os dígitos mascarados exceto os
//     2 finais (política conservadora; separadores preservados);
//   - chaves de credencial (password/senha/secret/token): RedactionMarker,
//     independente do conteúdo;
//   - demais campos passam inalterados.
func MaskPII(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	masked := make(map[string]any, len(metadata))
	for key, value := range metadata {
		masked[key] = maskValue(key, value)
	}
	return masked
}

func maskValue(key string, value any) any {
	if isCredentialKey(key) {
		return RedactionMarker
	}

	switch v := value.(type) {
	case string:
		return maskString(v)
	case map[string]any:
		return MaskPII(v)
	default:
		return value
	}
}

func isCredentialKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range credentialKeys {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func maskString(value string) string {
	if emailPattern.MatchString(value) {
		return maskEmail(value)
	}
	if phonePattern.MatchString(value) {
		return maskPhone(value)
	}
	return value
}

// maskEmail preserva o primeiro caractere da parte local e o domínio.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return RedactionMarker
	}
	local := []rune(email[:at])
	return string(local[0]) + "****" + email[at:]
}

// maskPhone mascara todos os dígitos exceto os 2 últimos, preservando
// separadores para manter o formato reconhecível.
func maskPhone(phone string) string {
	runes := []rune(phone)

	digits := 0
	for _, r := range runes {
		if r >= '0' && r <= '9' {
			digits++
		}
	}

	keep := 2
	if digits <= keep {
		keep = 0
	}

	seen := 0
	out := make([]rune, len(runes))
	for i, r := range runes {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= digits-keep {
				out[i] = '*'
				continue
			}
		}
		out[i] = r
	}
	return string(out)
}
