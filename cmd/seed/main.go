package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"ticket-chat/auth"
	"ticket-chat/repositories"
	"ticket-chat/runtime"
	"ticket-chat/services"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// The seeder never issues tokens, the secret only satisfies the auth service.
const seedSecret = "seed-only-secret"

func main() {
	_ = godotenv.Load()
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	logger := logs.GetLoggerFromString("INFO")

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithLogger(runtime.NewBadgerLogger(logger)).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		fmt.Fprintf(os.Stderr, "database opening failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	seeder := Seeder{
		authService: services.NewAuthService(users, auth.NewTokenIssuer(seedSecret, time.Hour), logger),
		users:       users,
		groups:      repositories.NewGroupRepository(db),
		messages:    repositories.NewMessageRepository(db, logger, nil),
		blacklist:   repositories.NewBlacklistRepository(db),
		now:         time.Now,
		log:         logger,
	}
	accounts, err := seeder.Run(defaultDataset(), cfg.Blacklist)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		db.Close()
		os.Exit(1)
	}

	header := fmt.Sprintf("  ====== Seeded %s ======", cfg.BadgerFilepath)
	if cfg.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)
	render(accounts)
}

func render(accounts []seeded) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Email", "Name", "Password", "Groups", "Created"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, account := range accounts {
		groups := strings.Join(account.Groups, ", ")
		if groups == "" {
			groups = "-"
		}
		table.Append([]string{account.Email, account.FullName, account.Password, groups, strconv.FormatBool(account.Created)})
	}
	table.Render()
}
