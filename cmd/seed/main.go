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

	"github.com/pawmed/vet-clinic-booking/internal/db"
	"github.com/pawmed/vet-clinic-booking/internal/schedule"
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

	clinicIDs, err := seedClinics(context.Background(), pool, 5)
	if err != nil {
		log.Fatalf("seed clinics: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, clinicIDs, 40); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	customerIDs, err := seedCustomers(context.Background(), pool, 500)
	if err != nil {
		log.Fatalf("seed customers: %v", err)
	}
	if err := seedPets(context.Background(), pool, customerIDs); err != nil {
		log.Fatalf("seed pets: %v", err)
	}

	log.Println("seed complete")
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clinics", count)

	ids := make([]uuid.UUID, 0, count)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		ownerID := uuid.New()
		name := gofakeit.Company() + " Veterinary Clinic"

		_, err := tx.Exec(ctx, `
			INSERT INTO clinics (id, name, owner_id, cancel_before_minutes, no_show_mark_after_minutes, created_at, updated_at)
			VALUES ($1, $2, $3, 120, 15, now(), now())
		`, id, name, ownerID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("clinics seeded")
	return ids, nil
}

// defaultTemplate is the clinic-wide starting schedule: weekday mornings and
// afternoons at 30-minute slots with a late-morning break.
func defaultTemplate() (workingDays, breakBlocks []byte, err error) {
	days := schedule.WorkingDays{}
	for _, day := range []string{"mon", "tue", "wed", "thu", "fri"} {
		days[day] = []schedule.Block{
			{Start: "08:00", End: "11:30"},
			{Start: "13:30", End: "17:00"},
		}
	}
	breaks := []schedule.Block{{Start: "11:30", End: "11:50"}}

	if workingDays, err = json.Marshal(days); err != nil {
		return nil, nil, err
	}
	if breakBlocks, err = json.Marshal(breaks); err != nil {
		return nil, nil, err
	}
	return workingDays, breakBlocks, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, clinicIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"General Practice",
		"Surgery",
		"Dermatology",
		"Dentistry",
		"Cardiology",
		"Exotic Animals",
		"Ophthalmology",
	}

	workingDays, breakBlocks, err := defaultTemplate()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		clinicID := clinicIDs[gofakeit.Number(0, len(clinicIDs)-1)]
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors
				(id, clinic_id, name, specialty, slot_duration_min, working_days, break_blocks, max_concurrent, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 30, $5, $6, 1, now(), now())
		`, id, clinicID, name, spec, workingDays, breakBlocks)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d customers", count)

	const batchSize = 250

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO customers (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("customers seeded: %d/%d", end, count)
	}

	return ids, nil
}

func seedPets(ctx context.Context, pool *pgxpool.Pool, ownerIDs []uuid.UUID) error {
	log.Printf("seeding pets for %d owners", len(ownerIDs))

	species := []string{"dog", "cat", "rabbit", "parrot", "hamster", "guinea pig"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, ownerID := range ownerIDs {
		n := gofakeit.Number(1, 3)
		for i := 0; i < n; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO pets (id, owner_id, name, species, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, uuid.New(), ownerID, gofakeit.PetName(), species[gofakeit.Number(0, len(species)-1)])
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("pets seeded")
	return nil
}
