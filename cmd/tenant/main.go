package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vitrinedigital/plataforma/internal/auth"
	"github.com/vitrinedigital/plataforma/internal/db"
	"github.com/vitrinedigital/plataforma/internal/rbac"
	"github.com/vitrinedigital/plataforma/internal/tenant"
	"github.com/vitrinedigital/plataforma/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	repo := tenant.NewRepository(pool)
	service := tenant.NewService(repo)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		if err := runCreate(ctx, service, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar tenant")
		}
	case "list":
		if err := runList(ctx, service); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar tenants")
		}
	case "seed-admin":
		if err := runSeedAdmin(ctx, pool, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar admin")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "tenant CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  tenant create --slug loja --name \"Loja Exemplo\" --domain loja.vitrinedigital.com.br [--settings-file settings.json]")
	fmt.Fprintln(os.Stderr, "  tenant create --slug loja --name \"Loja Exemplo\" --domain loja.vitrinedigital.com.br --settings '{\\\"corPrimaria\\\":\\\"#123456\\\"}'")
	fmt.Fprintln(os.Stderr, "  tenant list")
	fmt.Fprintln(os.Stderr, "  tenant seed-admin --tenant <uuid> --name \"Admin\" --email admin@loja.com --password segredo123")
}

func runCreate(ctx context.Context, service *tenant.Service, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		slug         = fs.String("slug", "", "slug do tenant (ex.: loja-exemplo)")
		name         = fs.String("name", "", "nome exibido")
		domain       = fs.String("domain", "", "domínio completo (ex.: loja.vitrinedigital.com.br)")
		settingsFile = fs.String("settings-file", "", "arquivo JSON com configurações da vitrine")
		settingsJSON = fs.String("settings", "", "JSON literal com configurações da vitrine")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *slug == "" || *name == "" || *domain == "" {
		return errors.New("slug, name e domain são obrigatórios")
	}

	settings := map[string]any{}
	if *settingsFile != "" {
		raw, err := os.ReadFile(*settingsFile)
		if err != nil {
			return fmt.Errorf("ler settings-file: %w", err)
		}
		if err := json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("parse settings-file: %w", err)
		}
	} else if *settingsJSON != "" {
		if err := json.Unmarshal([]byte(*settingsJSON), &settings); err != nil {
			return fmt.Errorf("parse settings: %w", err)
		}
	}

	tenantCreated, err := service.Create(ctx, tenant.CreateTenantInput{
		Slug:        *slug,
		DisplayName: *name,
		Domain:      *domain,
		Settings:    settings,
	})
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(tenantCreated, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runList(ctx context.Context, service *tenant.Service) error {
	tenants, err := service.List(ctx)
	if err != nil {
		return err
	}

	if len(tenants) == 0 {
		fmt.Println("nenhum tenant cadastrado")
		return nil
	}

	encoded, _ := json.MarshalIndent(tenants, "", "  ")
	fmt.Println(string(encoded))
	return nil
}

// runSeedAdmin cria o CLIENTE_ADMIN inicial de uma vitrine recém-provisionada.
func runSeedAdmin(ctx context.Context, pool *pgxpool.Pool, args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		tenantID = fs.String("tenant", "", "uuid do tenant")
		name     = fs.String("name", "", "nome do administrador")
		email    = fs.String("email", "", "e-mail de login")
		password = fs.String("password", "", "senha inicial")
		role     = fs.String("role", string(rbac.RoleClienteAdmin), "papel do usuário")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tenantID == "" || *name == "" || *email == "" || *password == "" {
		return errors.New("tenant, name, email e password são obrigatórios")
	}

	tid, err := uuid.Parse(*tenantID)
	if err != nil {
		return fmt.Errorf("tenant inválido: %w", err)
	}

	parsedRole, err := rbac.ParseRole(*role)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}

	repo := user.NewRepository(pool)
	created, err := repo.Create(ctx, user.CreateInput{
		Name:         *name,
		Email:        strings.ToLower(*email),
		PasswordHash: hash,
		Role:         parsedRole,
		TenantID:     tid,
		Active:       true,
	})
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(created, "", "  ")
	fmt.Println(string(output))
	return nil
}
