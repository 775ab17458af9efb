package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medops/ot-scheduling/internal/config"
	"github.com/medops/ot-scheduling/internal/db"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	ScheduleRatio float64
	CancelRatio   float64
	ReadRatio     float64
	RequestLimit  int
	PostgresDSN   string
}

// DataPool holds the IDs the workers fight over. Candidate requests are
// drained as they get scheduled; scheduled IDs feed the cancel/read workers.
type DataPool struct {
	Rooms     []uuid.UUID
	Surgeons  []uuid.UUID
	Equipment []uuid.UUID

	mu         sync.Mutex
	candidates []uuid.UUID
	scheduled  []uuid.UUID
}

func (dp *DataPool) PopCandidate(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.candidates) == 0 {
		return uuid.Nil, false
	}
	idx := rng.Intn(len(dp.candidates))
	id := dp.candidates[idx]
	dp.candidates = append(dp.candidates[:idx], dp.candidates[idx+1:]...)
	return id, true
}

func (dp *DataPool) PushCandidate(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.candidates = append(dp.candidates, id)
}

func (dp *DataPool) AddScheduled(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.scheduled = append(dp.scheduled, id)
}

func (dp *DataPool) GetRandomScheduled(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.scheduled) == 0 {
		return uuid.Nil, false
	}
	return dp.scheduled[rng.Intn(len(dp.scheduled))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Schedule   OperationMetrics
	Cancel     OperationMetrics
	ReadByID   OperationMetrics
	Candidates OperationMetrics
	Slots      OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d schedule=%.2f cancel=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.ScheduleRatio, cfg.CancelRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d candidates, %d rooms, %d surgeons, %d equipment",
		len(dataPool.candidates), len(dataPool.Rooms), len(dataPool.Surgeons), len(dataPool.Equipment))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	verifyNoDoubleBooking(context.Background(), pgPool)
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		ScheduleRatio: getFloat("SIM_SCHEDULE_RATIO", 0.5),
		CancelRatio:   getFloat("SIM_CANCEL_RATIO", 0.2),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.3),
		RequestLimit:  getInt("SIM_REQUEST_LIMIT", 500),
		PostgresDSN:   baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.ScheduleRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.ScheduleRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM surgery_requests
		WHERE status IN ('pending', 'reviewed')
		LIMIT $1
	`, cfg.RequestLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidate requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.candidates = append(dataPool.candidates, id)
	}

	rows, err = pool.Query(ctx, `SELECT id, type FROM ot_resources`)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var typ string
		if err := rows.Scan(&id, &typ); err != nil {
			return nil, err
		}
		switch typ {
		case "ot-room":
			dataPool.Rooms = append(dataPool.Rooms, id)
		case "surgeon":
			dataPool.Surgeons = append(dataPool.Surgeons, id)
		case "equipment":
			dataPool.Equipment = append(dataPool.Equipment, id)
		}
	}

	if len(dataPool.candidates) == 0 {
		return nil, fmt.Errorf("no candidate requests loaded, run the seeder first")
	}
	if len(dataPool.Rooms) == 0 || len(dataPool.Surgeons) == 0 {
		return nil, fmt.Errorf("no rooms or surgeons loaded, run the seeder first")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			if r < s.config.ScheduleRatio {
				s.doSchedule(ctx, rng)
			} else if r < s.config.ScheduleRatio+s.config.CancelRatio {
				s.doCancel(ctx, rng)
			} else {
				switch rng.Intn(3) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doCandidates(ctx)
				case 2:
					s.doSlots(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) transition(ctx context.Context, id uuid.UUID, body map[string]any) (*http.Response, error) {
	encoded, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/requests/%s/transition", s.config.APIBaseURL, id.String()),
		bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	return s.client.Do(req)
}

// doSchedule drives one candidate through reviewed into scheduled at a random
// slot. Workers deliberately pick from a small set of rooms and times so they
// collide; a 409 means the conflict detector turned someone away.
func (s *Simulator) doSchedule(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.PopCandidate(rng)
	if !ok {
		return
	}

	// pending -> reviewed first; 409 here just means it already moved on.
	resp, err := s.transition(ctx, id, map[string]any{"target": "reviewed"})
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	roomID := s.pool.Rooms[rng.Intn(len(s.pool.Rooms))]
	surgeonID := s.pool.Surgeons[rng.Intn(len(s.pool.Surgeons))]
	date := time.Now().AddDate(0, 0, rng.Intn(7)).Format("2006-01-02")
	startHour := 8 + rng.Intn(8)
	payload := map[string]any{
		"date":           date,
		"start":          fmt.Sprintf("%02d:00", startHour),
		"end":            fmt.Sprintf("%02d:00", startHour+2),
		"room_id":        roomID.String(),
		"surgeon_ids":    []string{surgeonID.String()},
		"consent_signed": true,
	}
	if len(s.pool.Equipment) > 0 && rng.Float64() < 0.5 {
		eq := s.pool.Equipment[rng.Intn(len(s.pool.Equipment))]
		payload["equipment_ids"] = []string{eq.String()}
	}

	start := time.Now()
	resp, err = s.transition(ctx, id, map[string]any{"target": "scheduled", "schedule": payload})
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			success = true
			s.pool.AddScheduled(id)
		case http.StatusConflict:
			conflict = true
			s.pool.PushCandidate(id) // back in the pool for another try
		}
	}

	s.metrics.Schedule.Record(latency, success, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomScheduled(rng)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.transition(ctx, id, map[string]any{"target": "cancelled"})
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Cancel.Record(latency, success, conflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomScheduled(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/requests/%s", s.config.APIBaseURL, id.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadByID.Record(latency, success, false)
}

func (s *Simulator) doCandidates(ctx context.Context) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET", s.config.APIBaseURL+"/requests/candidates", nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Candidates.Record(latency, success, false)
}

func (s *Simulator) doSlots(ctx context.Context, rng *rand.Rand) {
	date := time.Now().AddDate(0, 0, rng.Intn(7)).Format("2006-01-02")

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/slots?date=%s", s.config.APIBaseURL, date), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Slots.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Schedule", &s.metrics.Schedule)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List Candidates", &s.metrics.Candidates)
	printOperationReport("List Slots", &s.metrics.Slots)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errs := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errs > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errs, float64(errs)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// verifyNoDoubleBooking is the point of the whole exercise: after hammering
// the API concurrently, no theatre and no shared resource may hold two
// overlapping booked slots. Start/end are zero-padded HH:MM so string
// comparison orders correctly.
func verifyNoDoubleBooking(ctx context.Context, pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var roomOverlaps int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM ot_slots a
		JOIN ot_slots b
		  ON a.id < b.id
		 AND a.date = b.date
		 AND a.ot_room_id = b.ot_room_id
		 AND a.start_time < b.end_time
		 AND b.start_time < a.end_time
		WHERE a.status = 'booked' AND b.status = 'booked'
	`).Scan(&roomOverlaps)
	if err != nil {
		log.Printf("verify room overlaps: %v", err)
		return
	}

	var resourceOverlaps int
	err = pool.QueryRow(ctx, `
		SELECT count(*)
		FROM ot_slots a
		JOIN ot_slots b
		  ON a.id < b.id
		 AND a.date = b.date
		 AND a.start_time < b.end_time
		 AND b.start_time < a.end_time
		WHERE a.status = 'booked' AND b.status = 'booked'
		  AND EXISTS (
			SELECT 1
			FROM jsonb_array_elements_text(a.resource_ids) ra
			JOIN jsonb_array_elements_text(b.resource_ids) rb ON ra.value = rb.value
		  )
	`).Scan(&resourceOverlaps)
	if err != nil {
		log.Printf("verify resource overlaps: %v", err)
		return
	}

	fmt.Println(strings.Repeat("=", 80))
	if roomOverlaps == 0 && resourceOverlaps == 0 {
		fmt.Println("VERIFICATION PASSED: no overlapping bookings found")
	} else {
		fmt.Printf("VERIFICATION FAILED: %d room overlaps, %d resource overlaps\n",
			roomOverlaps, resourceOverlaps)
	}
	fmt.Println(strings.Repeat("=", 80))
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
