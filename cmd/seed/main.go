package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vozclinica/voice-booking/internal/db"
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

	clinicID, err := seedClinic(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed clinic: %v", err)
	}
	providerIDs, err := seedProviders(context.Background(), pool, clinicID)
	if err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	if err := seedAppointmentTypes(context.Background(), pool, clinicID); err != nil {
		log.Fatalf("seed appointment types: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, providerIDs); err != nil {
		log.Fatalf("seed availability: %v", err)
	}
	if err := seedPatients(context.Background(), pool, clinicID, 200); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
	log.Printf("clinic: %s", clinicID)
}

func seedClinic(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	id := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO clinics (id, name, slug, active, created_at)
		VALUES ($1, $2, $3, true, now())
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
	`, id, "Clínica Oftalmológica Demo", "demo")
	if err != nil {
		return uuid.Nil, err
	}

	// the upsert may have kept a pre-existing row
	row := pool.QueryRow(ctx, `SELECT id FROM clinics WHERE slug = 'demo'`)
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID) ([]uuid.UUID, error) {
	names := []string{
		"Dra. Valeria García",
		"Dr. Andrés Morales",
		"Dra. Lucía Sánchez",
	}
	log.Printf("seeding %d providers", len(names))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, clinic_id, name, created_at)
			VALUES ($1, $2, $3, now())
		`, id, clinicID, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("providers seeded")
	return ids, nil
}

func seedAppointmentTypes(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID) error {
	types := []struct {
		code    string
		minutes int
	}{
		{"EVAL", 30},
		{"CONTROL", 15},
		{"CIRUGIA", 60},
	}
	log.Printf("seeding %d appointment types", len(types))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, t := range types {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_types (id, clinic_id, code, duration_minutes, created_at)
			VALUES ($1, $2, $3, $4, now())
		`, uuid.New(), clinicID, t.code, t.minutes)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointment types seeded")
	return nil
}

func seedAvailability(ctx context.Context, pool *pgxpool.Pool, providerIDs []uuid.UUID) error {
	log.Printf("seeding availability for %d providers", len(providerIDs))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Monday through Friday, 09:00-17:00, 30-minute grid.
	for _, providerID := range providerIDs {
		for day := 0; day < 5; day++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO availability_rules (id, provider_id, day_of_week, start_hhmm, end_hhmm, slot_minutes)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, uuid.New(), providerID, day, "09:00", "17:00", 30)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, clinic_id, full_name, phone, created_at)
				VALUES ($1, $2, $3, $4, now())
				ON CONFLICT (clinic_id, phone) DO NOTHING
			`, id, clinicID, name, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
