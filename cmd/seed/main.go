package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcore/hospital-scheduling/internal/db"
	"github.com/medcore/hospital-scheduling/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(context.Background(), pool, 25); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var slotPatterns = [][]string{
	{"09:00-12:00", "14:00-17:00"},
	{"08:30-12:30"},
	{"10:00-13:00", "15:00-18:00"},
	{"13:00-19:00"},
}

func randomSchedule() schedule.WeeklySchedule {
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	ws := make(schedule.WeeklySchedule)
	for _, day := range days {
		if gofakeit.Bool() {
			ws[day] = slotPatterns[gofakeit.Number(0, len(slotPatterns)-1)]
		}
	}
	// every doctor works at least one day
	if len(ws) == 0 {
		ws["Monday"] = slotPatterns[0]
	}
	return ws
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := gofakeit.Email()

		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, name, email, role, created_at, updated_at)
			VALUES ($1, $2, $3, 'doctor', now(), now())
		`, id, name, email)
		if err != nil {
			return err
		}

		rawSchedule, err := json.Marshal(randomSchedule())
		if err != nil {
			return err
		}

		specialization := specializations[gofakeit.Number(0, len(specializations)-1)]
		_, err = pool.Exec(ctx, `
			INSERT INTO doctors (user_id, specialization, schedule)
			VALUES ($1, $2, $3)
		`, id, specialization, rawSchedule)
		if err != nil {
			return err
		}
	}

	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	for i := 0; i < count; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, name, email, role, created_at, updated_at)
			VALUES ($1, $2, $3, 'patient', now(), now())
		`, uuid.New(), gofakeit.Name(), gofakeit.Email())
		if err != nil {
			return err
		}
	}

	return nil
}
