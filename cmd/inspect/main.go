package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"ticket-chat/repositories"
	"ticket-chat/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

const shortID = 8

// inspect prints the memberships and the history of the dev backend store.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	email := flag.String("user", "", "Email of the user whose groups are listed")
	flag.Parse()
	if *email == "" {
		log.Fatal("-user is required")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	logger := logs.GetLoggerFromString("WARN")
	users := repositories.NewUserRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, logger, nil)

	user, err := users.GetUserByEmail(*email)
	if err != nil {
		log.Fatal("Unknown user: ", err)
	}
	memberships, err := groups.ListMemberships(user.ID)
	if err != nil {
		log.Fatal(err)
	}

	table := newTable("Group", "Event", "Time", "Author", "Content")
	for _, membership := range memberships {
		history, err := messages.GetMessages(membership.Group.ID)
		if err != nil {
			log.Fatal(err)
		}
		if len(history) == 0 {
			table.Append([]string{membership.Group.ID, membership.Event.Title, "-", "-", "(no message)"})
			continue
		}
		for _, message := range history {
			author := short(message.AuthorID)
			if profile, err := users.GetProfile(message.AuthorID); err == nil && profile.FullName != "" {
				author = profile.FullName
			}
			table.Append([]string{
				membership.Group.ID,
				membership.Event.Title,
				message.CreatedAt.Format("2006-01-02 15:04:05"),
				author,
				message.Content,
			})
		}
	}
	fmt.Printf("%s (%s) is a member of %d group(s)\n", *email, short(user.ID), len(memberships))
	table.Render()
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func short(id string) string {
	if len(id) > shortID {
		return id[:shortID]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(runtime.NewBadgerLogger(logs.GetLoggerFromString("ERROR"))).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A store left by a killed backend needs a writable open first
		repair, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil).WithBypassLockGuard(true))
		if err != nil {
			return nil, fmt.Errorf("repair failed: %w", err)
		}
		_ = repair.Close()
		return badger.Open(opts)
	}
	return db, err
}
