package main

import (
	"ticket-chat/repositories"
	"time"
)

type seedUser struct {
	Email    string
	Password string
	FullName string
	Groups   []string
}

type seedMessage struct {
	ID      string
	GroupID string
	Author  string // email of the author
	Content string
	Ago     time.Duration
}

type dataset struct {
	Events   []repositories.DiskEvent
	Groups   []repositories.DiskGroup
	Users    []seedUser
	Messages []seedMessage
}

func defaultDataset() dataset {
	return dataset{
		Events: []repositories.DiskEvent{
			{ID: "event-rock-night", Title: "Rock Night", Venue: "Olympia, Paris", Description: "Three bands, one night.",
				Date: time.Date(2026, 11, 21, 20, 0, 0, 0, time.UTC)},
			{ID: "event-jazz-club", Title: "Jazz Club Session", Venue: "New Morning, Paris",
				Date: time.Date(2026, 12, 5, 21, 30, 0, 0, time.UTC)},
			{ID: "event-electro", Title: "Electro Open Air", Venue: "Parc de la Villette",
				Date: time.Date(2027, 6, 12, 16, 0, 0, 0, time.UTC)},
		},
		Groups: []repositories.DiskGroup{
			{ID: "group-rock-night", EventID: "event-rock-night"},
			{ID: "group-jazz-club", EventID: "event-jazz-club"},
			{ID: "group-electro", EventID: "event-electro"},
		},
		Users: []seedUser{
			{Email: "alice@example.com", Password: "Backstage#2026", FullName: "Alice Martin",
				Groups: []string{"group-rock-night", "group-jazz-club"}},
			{Email: "bob@example.com", Password: "FrontRow!2026", FullName: "Bob Stone",
				Groups: []string{"group-rock-night"}},
			{Email: "clara@example.com", Password: "Encore?!2026", FullName: "Clara Dupont",
				Groups: []string{"group-jazz-club", "group-electro"}},
			{Email: "dan@example.com", Password: "NoTicket_2026", FullName: "Dan Lee"},
		},
		Messages: []seedMessage{
			{ID: "seed-rock-1", GroupID: "group-rock-night", Author: "bob@example.com",
				Content: "Anyone knows when the doors open?", Ago: 3 * time.Hour},
			{ID: "seed-rock-2", GroupID: "group-rock-night", Author: "alice@example.com",
				Content: "7pm according to the ticket", Ago: 2*time.Hour + 50*time.Minute},
			{ID: "seed-jazz-1", GroupID: "group-jazz-club", Author: "clara@example.com",
				Content: "Is there a dress code?", Ago: 26 * time.Hour},
		},
	}
}
