package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testSecret = "chave-de-teste-com-32-caracteres!"

func TestGenerateAndParseAccessToken(t *testing.T) {
	mgr := NewJWTManager(testSecret, time.Hour)
	subject := uuid.NewString()
	tenantID := uuid.NewString()

	signed, jti, err := mgr.GenerateAccessToken(subject, "CLIENTE_ADMIN", tenantID)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if jti == "" {
		t.Fatal("jti deve ser preenchido")
	}

	claims, err := mgr.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("token recém-emitido deve validar: %v", err)
	}
	if claims.Subject != subject {
		t.Fatalf("subject incorreto: %s", claims.Subject)
	}
	if claims.Role != "CLIENTE_ADMIN" {
		t.Fatalf("papel incorreto: %s", claims.Role)
	}
	if claims.TenantID != tenantID {
		t.Fatalf("tenant incorreto: %s", claims.TenantID)
	}
	if claims.ID != jti {
		t.Fatalf("jti divergente: %s != %s", claims.ID, jti)
	}
	if claims.IssuedAt == nil {
		t.Fatal("iat deve estar presente")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	mgr := NewJWTManager(testSecret, time.Hour)

	signed, _, err := mgr.GenerateAccessToken(uuid.NewString(), "CLIENTE_USER", uuid.NewString())
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	parts := strings.Split(signed, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := mgr.ParseAndValidate(tampered); err == nil {
		t.Fatal("assinatura adulterada deve falhar")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	mgr := NewJWTManager(testSecret, time.Hour)
	other := NewJWTManager("outra-chave-tambem-com-32-chars!!", time.Hour)

	signed, _, err := other.GenerateAccessToken(uuid.NewString(), "OPERADOR", uuid.NewString())
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Fatal("segredo divergente deve falhar")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	mgr := NewJWTManager(testSecret, -time.Minute)

	signed, _, err := mgr.GenerateAccessToken(uuid.NewString(), "OPERADOR", uuid.NewString())
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Fatal("token vencido deve falhar")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if raw == "" || hash == "" {
		t.Fatal("token e hash devem ser preenchidos")
	}
	if HashRefreshToken(raw) != hash {
		t.Fatal("hash deve ser determinístico sobre o valor bruto")
	}
	if raw == hash {
		t.Fatal("valor bruto nunca pode coincidir com o hash armazenado")
	}
}
