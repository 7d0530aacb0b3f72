package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	appdb "github.com/yourorg/crewtrack/internal/db"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("==== CrewTrack CLI ====")
		fmt.Println("1) Health check API")
		fmt.Println("2) Seed database (demo user + production)")
		fmt.Println("3) Exit")
		fmt.Print("Select option: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		switch choice {
		case "1":
			doHealthCheck()
		case "2":
			doSeed()
		case "3":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func doHealthCheck() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	url := strings.TrimRight(base, "/") + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Health: ERROR:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("Health status:", resp.Status)
}

func doSeed() {
	db, err := appdb.Connect()
	if err != nil {
		log.Println("DB connect error:", err)
		return
	}
	defer db.Close()
	if err := appdb.EnsureSchema(db); err != nil {
		log.Println("Ensure schema error:", err)
		return
	}
	seedDemo(db)
}

func seedDemo(db *sql.DB) {
	// Creates a sample user and production if not exists
	username := "demo"
	email := "demo@example.com"
	name := "Demo"
	password := "demo1234"

	var userID int64
	err := db.QueryRow("SELECT id FROM users WHERE username = ?", username).Scan(&userID)
	if err == sql.ErrNoRows {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Println("Seed: bcrypt error:", err)
			return
		}
		res, err := db.Exec(
			"INSERT INTO users (username,email,name,password_hash) VALUES (?,?,?,?)",
			username, email, name, string(hash),
		)
		if err != nil {
			fmt.Println("Seed: insert error:", err)
			return
		}
		userID, _ = res.LastInsertId()
		fmt.Println("Seed: created user 'demo' with password 'demo1234'")
	} else if err != nil {
		fmt.Println("Seed: query error:", err)
		return
	} else {
		fmt.Println("Seed: user 'demo' already exists")
	}

	var exists int
	err = db.QueryRow("SELECT 1 FROM productions WHERE owner_id = ? AND name = ?", userID, "Demo Production").Scan(&exists)
	if err == nil {
		fmt.Println("Seed: production 'Demo Production' already exists")
		return
	}
	if err != sql.ErrNoRows {
		fmt.Println("Seed: query error:", err)
		return
	}

	inviteCode := uuid.New().String()
	res, err := db.Exec(
		"INSERT INTO productions (name, invite_code, owner_id) VALUES (?,?,?)",
		"Demo Production", inviteCode, userID,
	)
	if err != nil {
		fmt.Println("Seed: insert production error:", err)
		return
	}
	productionID, _ := res.LastInsertId()
	if _, err := db.Exec(
		"INSERT INTO user_productions (user_id, production_id) VALUES (?,?)",
		userID, productionID,
	); err != nil {
		fmt.Println("Seed: insert membership error:", err)
		return
	}
	fmt.Printf("Seed: created production 'Demo Production' (invite code %s)\n", inviteCode)
}
