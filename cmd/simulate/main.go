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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawmed/vet-clinic-booking/internal/config"
	"github.com/pawmed/vet-clinic-booking/internal/db"
)

// The simulator hammers the booking API with concurrent workers that all
// fight over the same day's slots, then reports how many bookings succeeded
// vs. conflicted. With the uniqueness guarantee intact, successes per
// (doctor, start) never exceed one.

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	DoctorLimit   int
	CustomerLimit int
	TargetDate    string
	PostgresDSN   string
}

type DataPool struct {
	Doctors   []uuid.UUID
	Customers []uuid.UUID

	mu    sync.RWMutex
	slots map[uuid.UUID][]string // doctor -> open "HH:MM" starts for the target date
}

func (dp *DataPool) SetSlots(doctorID uuid.UUID, starts []string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.slots[doctorID] = starts
}

func (dp *DataPool) RandomSlot(rng *rand.Rand) (uuid.UUID, string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.Doctors) == 0 {
		return uuid.Nil, "", false
	}
	doctorID := dp.Doctors[rng.Intn(len(dp.Doctors))]
	starts := dp.slots[doctorID]
	if len(starts) == 0 {
		return uuid.Nil, "", false
	}
	return doctorID, starts[rng.Intn(len(starts))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

type Simulator struct {
	config       SimConfig
	pool         *DataPool
	client       *http.Client
	booking      OperationMetrics
	availability OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()

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
	log.Printf("loaded: %d doctors, %d customers", len(dataPool.Doctors), len(dataPool.Customers))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	if err := sim.primeSlots(ctx); err != nil {
		log.Fatalf("prime slots: %v", err)
	}

	sim.Run()
	sim.PrintReport()
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	// Default target: next Monday, so the weekday template applies.
	target := time.Now().AddDate(0, 0, 1)
	for target.Weekday() != time.Monday {
		target = target.AddDate(0, 0, 1)
	}

	return SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		DoctorLimit:   getInt("SIM_DOCTOR_LIMIT", 10),
		CustomerLimit: getInt("SIM_CUSTOMER_LIMIT", 500),
		TargetDate:    getEnv("SIM_TARGET_DATE", target.Format("2006-01-02")),
		PostgresDSN:   baseCfg.PostgresDSN,
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{slots: make(map[uuid.UUID][]string)}

	rows, err := pool.Query(ctx, `SELECT id FROM doctors LIMIT $1`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Doctors = append(dataPool.Doctors, id)
	}

	rows, err = pool.Query(ctx, `SELECT id FROM customers LIMIT $1`, cfg.CustomerLimit)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Customers = append(dataPool.Customers, id)
	}

	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded, run cmd/seed first")
	}
	if len(dataPool.Customers) == 0 {
		return nil, fmt.Errorf("no customers loaded, run cmd/seed first")
	}
	return dataPool, nil
}

// primeSlots fetches each doctor's availability once so workers can race for
// a known, finite slot pool.
func (s *Simulator) primeSlots(ctx context.Context) error {
	for _, doctorID := range s.pool.Doctors {
		starts, err := s.fetchAvailability(ctx, doctorID)
		if err != nil {
			return err
		}
		s.pool.SetSlots(doctorID, starts)
	}
	return nil
}

func (s *Simulator) fetchAvailability(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	url := fmt.Sprintf("%s/doctors/%s/availability?date=%s", s.config.APIBaseURL, doctorID, s.config.TargetDate)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability returned %d for doctor %s", resp.StatusCode, doctorID)
	}

	var payload struct {
		Slots []struct {
			Start string `json:"start"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	starts := make([]string, 0, len(payload.Slots))
	for _, slot := range payload.Slots {
		starts = append(starts, slot.Start)
	}
	return starts, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers on date %s",
		s.config.Duration, s.config.Workers, s.config.TargetDate)

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
			if rng.Float64() < 0.7 {
				s.doBooking(ctx, rng)
			} else {
				s.doAvailability(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	doctorID, slotStart, ok := s.pool.RandomSlot(rng)
	if !ok {
		return
	}
	customerID := s.pool.Customers[rng.Intn(len(s.pool.Customers))]

	body, _ := json.Marshal(map[string]string{
		"doctor_id": doctorID.String(),
		"date":      s.config.TargetDate,
		"time":      slotStart,
		"channel":   "ONLINE",
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", customerID.String())
	req.Header.Set("X-Actor-Role", "customer")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusCreated
		conflict = resp.StatusCode == http.StatusConflict
	}
	s.booking.Record(latency, success, conflict)
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]

	start := time.Now()
	_, err := s.fetchAvailability(ctx, doctorID)
	s.availability.Record(time.Since(start), err == nil, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println()
	fmt.Println("=== simulation report ===")

	printOp := func(name string, om *OperationMetrics) {
		avg, p50, p95 := om.Stats()
		fmt.Printf("%-14s total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s\n",
			name, om.Total, om.Success, om.Conflict, om.Error, avg, p50, p95)
	}
	printOp("booking", &s.booking)
	printOp("availability", &s.availability)

	totalSlots := 0
	s.pool.mu.RLock()
	for _, starts := range s.pool.slots {
		totalSlots += len(starts)
	}
	s.pool.mu.RUnlock()

	fmt.Printf("slot pool size=%d (booking successes must never exceed it)\n", totalSlots)
	if s.booking.Success > int64(totalSlots) {
		fmt.Println("DOUBLE BOOKING DETECTED: more successes than distinct slots")
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
