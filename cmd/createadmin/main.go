// Command createadmin は有効化済みの管理者アカウントを作成します。
//
//	go run ./cmd/createadmin -email admin@example.com -username admin -password '...'
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	authadapters "pricing_backend/internal/feature/auth/adapters"
	authusecase "pricing_backend/internal/feature/auth/usecase"
	"pricing_backend/internal/platform/db"
	jwtmw "pricing_backend/internal/platform/jwt"
	"pricing_backend/internal/platform/mail"
)

func main() {
	email := flag.String("email", "", "admin email address")
	username := flag.String("username", "", "admin username")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (defaults to $ADMIN_PASSWORD)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	if *email == "" || *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	gdb, err := db.Open(db.LoadConfig())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// 管理者作成はセッション・メールを使わない
	uc := authusecase.NewAuthUsecase(
		authadapters.NewUserRepository(gdb),
		authadapters.NewSessionRepository(gdb),
		jwtmw.NewGenerator(jwtmw.LoadConfig()),
		mail.New(mail.LoadConfig()),
		authusecase.Config{},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := uc.CreateSuperuser(ctx, *email, *username, *password)
	if err != nil {
		slog.Error("failed to create admin", "error", err)
		os.Exit(1)
	}
	slog.Info("admin created", "user_id", user.ID, "email", user.Email)
}
