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

	"github.com/medops/ot-scheduling/internal/db"
	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/surgery"
)

const seedDays = 14

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

	if err := seedRooms(context.Background(), pool, 6); err != nil {
		log.Fatalf("seed rooms: %v", err)
	}
	if err := seedSurgeons(context.Background(), pool, 40); err != nil {
		log.Fatalf("seed surgeons: %v", err)
	}
	if err := seedEquipment(context.Background(), pool, 15); err != nil {
		log.Fatalf("seed equipment: %v", err)
	}
	if err := seedRequests(context.Background(), pool, 300); err != nil {
		log.Fatalf("seed requests: %v", err)
	}

	log.Println("seed complete")
}

// fullDay builds an open calendar for the next seedDays days. Rooms run
// around the clock; people and machines keep working hours.
func fullDay(start, end string) []byte {
	s, _ := resource.ParseTimeOfDay(start)
	e, _ := resource.ParseTimeOfDay(end)

	avail := resource.Availability{}
	for d := 0; d < seedDays; d++ {
		date := time.Now().AddDate(0, 0, d).Format(resource.DateLayout)
		avail[date] = resource.DaySchedule{
			{Start: s, End: e, Status: resource.IntervalAvailable},
		}
	}

	encoded, err := json.Marshal(avail)
	if err != nil {
		log.Fatalf("encode availability: %v", err)
	}
	return encoded
}

func seedRooms(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d operating theatres", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 1; i <= count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO ot_resources (id, type, name, specialty, availability, created_at, updated_at)
			VALUES ($1, $2, $3, NULL, $4, now(), now())
		`, uuid.New(), resource.TypeRoom, "Theatre-"+gofakeit.DigitN(1), fullDay("00:00", "24:00"))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedSurgeons(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d surgeons", count)

	specialties := []string{
		"Cardiothoracic",
		"Neurosurgery",
		"Orthopedics",
		"General Surgery",
		"Vascular",
		"ENT",
		"Urology",
		"Plastic Surgery",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		_, err := tx.Exec(ctx, `
			INSERT INTO ot_resources (id, type, name, specialty, availability, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, uuid.New(), resource.TypeSurgeon, "Dr. "+gofakeit.Name(), spec, fullDay("07:00", "19:00"))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedEquipment(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d equipment units", count)

	kinds := []string{
		"C-Arm",
		"Heart-Lung Machine",
		"Anesthesia Workstation",
		"Surgical Microscope",
		"Laparoscopy Tower",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		kind := kinds[gofakeit.Number(0, len(kinds)-1)]
		_, err := tx.Exec(ctx, `
			INSERT INTO ot_resources (id, type, name, specialty, availability, created_at, updated_at)
			VALUES ($1, $2, $3, NULL, $4, now(), now())
		`, uuid.New(), resource.TypeEquipment, kind+" #"+gofakeit.DigitN(3), fullDay("06:00", "22:00"))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedRequests(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d surgery requests", count)

	const batchSize = 100

	surgeryTypes := []string{
		"Appendectomy",
		"CABG",
		"Hip Replacement",
		"Craniotomy",
		"Cholecystectomy",
		"Hernia Repair",
		"Knee Arthroscopy",
		"Spinal Fusion",
	}
	urgencies := []surgery.Urgency{
		surgery.UrgencyRoutine,
		surgery.UrgencyRoutine,
		surgery.UrgencyRoutine,
		surgery.UrgencyUrgent,
		surgery.UrgencyEmergency,
	}

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
			st := surgeryTypes[gofakeit.Number(0, len(surgeryTypes)-1)]
			urg := urgencies[gofakeit.Number(0, len(urgencies)-1)]
			requestedAt := time.Now().Add(-time.Duration(gofakeit.Number(0, 72)) * time.Hour)

			_, err := tx.Exec(ctx, `
				INSERT INTO surgery_requests
					(id, patient_id, requesting_doctor_id, surgery_type, urgency, diagnosis, notes,
					 requested_at, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			`, uuid.New(), uuid.New(), uuid.New(), st, urg,
				gofakeit.Sentence(6), gofakeit.Sentence(4), requestedAt, surgery.StatusPending)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("requests seeded: %d/%d", end, count)
	}

	return nil
}
