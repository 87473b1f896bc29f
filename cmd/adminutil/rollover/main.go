package main

import (
	"context"
	"fmt"
	"log"

	"github.com/kalim4k/luminagame/internal/db"
	"github.com/kalim4k/luminagame/internal/stats"
)

// rollover settles yesterday's earnings into available balances.
// Meant to run once per day from cron:
//   go run cmd/adminutil/rollover/main.go
func main() {
	// Initialize DB from environment variables
	db.Init()

	repo := stats.NewPostgresRepo(db.Conn)
	affected, err := repo.RolloverDay(context.Background())
	if err != nil {
		log.Fatalf("day rollover failed: %v", err)
	}

	fmt.Printf("Day rollover complete, %d accounts settled.\n", affected)
}
