package audit

import (
	"testing"
)

func TestMaskPIIEmail(t *testing.T) {
	metadata := map[string]any{"email": "joana.silva@lojaexemplo.com.br"}

	masked := MaskPII(metadata)

	got, _ := masked["email"].(string)
	if got != "j****@lojaexemplo.com.br" {
		t.Fatalf("email mascarado incorreto: %q", got)
	}
	if metadata["email"] != "joana.silva@lojaexemplo.com.br" {
		t.Fatal("o mapa original não pode ser alterado")
	}
}

func TestMaskPIIPhoneKeepsLastTwoDigits(t *testing.T) {
	masked := MaskPII(map[string]any{"contato": "+55 (11) 91234-5678"})

	got, _ := masked["contato"].(string)
	if got != "+** (**) *****-**78" {
		t.Fatalf("telefone mascarado incorreto: %q", got)
	}
}

func TestMaskPIICredentialKeys(t *testing.T) {
	metadata := map[string]any{
		"password":      "hunter22222",
		"senha_antiga":  "outra",
		"client_secret": "abc123",
		"api_token":     "tok_live_99",
		"nome":          "Joana",
	}

	masked := MaskPII(metadata)

	for _, key := range []string{"password", "senha_antiga", "client_secret", "api_token"} {
		if masked[key] != RedactionMarker {
			t.Errorf("%s deveria ser %q, obteve %v", key, RedactionMarker, masked[key])
		}
	}
	if masked["nome"] != "Joana" {
		t.Errorf("campo comum não deve ser alterado: %v", masked["nome"])
	}
}

func TestMaskPIINestedMaps(t *testing.T) {
	metadata := map[string]any{
		"request": map[string]any{
			"email": "cliente@loja.com",
			"token": "bearer xyz",
		},
		"count": 3,
	}

	masked := MaskPII(metadata)

	nested, ok := masked["request"].(map[string]any)
	if !ok {
		t.Fatal("mapa aninhado deveria permanecer mapa")
	}
	if nested["email"] != "c****@loja.com" {
		t.Fatalf("email aninhado incorreto: %v", nested["email"])
	}
	if nested["token"] != RedactionMarker {
		t.Fatalf("token aninhado deveria ser redigido: %v", nested["token"])
	}
	if masked["count"] != 3 {
		t.Fatalf("valores não-string passam intactos: %v", masked["count"])
	}

	original := metadata["request"].(map[string]any)
	if original["email"] != "cliente@loja.com" {
		t.Fatal("mapa aninhado original não pode ser alterado")
	}
}

func TestMaskPIINonPIIStrings(t *testing.T) {
	masked := MaskPII(map[string]any{
		"descricao": "pedido #1234 atualizado",
		"slug":      "loja-exemplo",
	})

	if masked["descricao"] != "pedido #1234 atualizado" {
		t.Fatalf("texto comum alterado: %v", masked["descricao"])
	}
	if masked["slug"] != "loja-exemplo" {
		t.Fatalf("slug alterado: %v", masked["slug"])
	}
}

func TestMaskPIINil(t *testing.T) {
	if MaskPII(nil) != nil {
		t.Fatal("nil deve continuar nil")
	}
}
