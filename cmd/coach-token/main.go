// Command coach-token mints an access token for local development.
//
//	coach-token -role coach -user <user-id> -coach <coach-id> -ttl 8h
//
// The secret is read from JWT_SECRET, loading .env first when present.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"coach-hub/internal/auth"
	"coach-hub/internal/common/logging"
	"coach-hub/internal/notifications"
)

func main() {
	_ = godotenv.Load()

	role := flag.String("role", "client", "client or coach")
	user := flag.String("user", "", "user id (token subject)")
	coach := flag.String("coach", "", "coach id, required for coaches")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	a, err := auth.New(os.Getenv("JWT_SECRET"), logging.NewDefaultLogger())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, err := a.GenerateJWT(notifications.Actor{
		Role:    notifications.Role(*role),
		UserID:  *user,
		CoachID: *coach,
	}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
