package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

type SimConfig struct {
	APIBaseURL      string
	RegistryBaseURL string
	Duration        time.Duration
	Workers         int
	BookingRatio    float64
	CompleteRatio   float64
	ReadRatio       float64
	Horizon         time.Duration
}

type DataPool struct {
	Patients     []int64
	Doctors      []int64
	Clinics      []int64
	mu           sync.RWMutex
	appointments []int64
}

func (dp *DataPool) AddAppointment(id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (int64, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return 0, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
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
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

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
	p50 = percentile(latencies, 50)
	p95 = percentile(latencies, 95)

	return avg, min, max, p50, p95
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type Metrics struct {
	Booking  OperationMetrics
	Complete OperationMetrics
	ReadByID OperationMetrics
	Filter   OperationMetrics
	GetAll   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(baseCfg.LogLevel, baseCfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig(baseCfg)
	if err := validateConfig(cfg); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("simulator starting",
		zap.String("api", cfg.APIBaseURL),
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Float64("booking", cfg.BookingRatio),
		zap.Float64("complete", cfg.CompleteRatio),
		zap.Float64("read", cfg.ReadRatio),
	)

	client := &http.Client{Timeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataPool, err := loadDataPool(ctx, client, cfg.RegistryBaseURL)
	if err != nil {
		logger.Fatal("load data pool", zap.Error(err))
	}

	logger.Info("loaded registry data",
		zap.Int("patients", len(dataPool.Patients)),
		zap.Int("doctors", len(dataPool.Doctors)),
		zap.Int("clinics", len(dataPool.Clinics)),
	)

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: client,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig(base config.Config) SimConfig {
	cfg := SimConfig{
		APIBaseURL:      getEnv("SIM_API_BASE_URL", "http://localhost:"+base.HTTPPort),
		RegistryBaseURL: getEnv("SIM_REGISTRY_BASE_URL", base.RegistryBaseURL),
		Duration:        getDuration("SIM_DURATION", 30*time.Second),
		Workers:         getInt("SIM_WORKERS", 10),
		BookingRatio:    getFloat("SIM_BOOKING_RATIO", 0.5),
		CompleteRatio:   getFloat("SIM_COMPLETE_RATIO", 0.2),
		ReadRatio:       getFloat("SIM_READ_RATIO", 0.3),
		Horizon:         getDuration("SIM_HORIZON", 14*24*time.Hour),
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.RegistryBaseURL = strings.TrimRight(cfg.RegistryBaseURL, "/")

	total := cfg.BookingRatio + cfg.CompleteRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CompleteRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.RegistryBaseURL == "" {
		return fmt.Errorf("SIM_REGISTRY_BASE_URL or REGISTRY_BASE_URL is required")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Horizon < time.Hour {
		return fmt.Errorf("SIM_HORIZON must be at least 1h")
	}
	return nil
}

func loadDataPool(ctx context.Context, client *http.Client, registryURL string) (*DataPool, error) {
	dataPool := &DataPool{}

	var err error
	if dataPool.Patients, err = fetchIDs(ctx, client, registryURL+"/Paciente/GetAll"); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	if dataPool.Doctors, err = fetchIDs(ctx, client, registryURL+"/Medico/GetAll"); err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	if dataPool.Clinics, err = fetchIDs(ctx, client, registryURL+"/Clinica/GetAll"); err != nil {
		return nil, fmt.Errorf("load clinics: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded")
	}
	if len(dataPool.Clinics) == 0 {
		return nil, fmt.Errorf("no clinics loaded")
	}

	return dataPool, nil
}

func fetchIDs(ctx context.Context, client *http.Client, endpoint string) ([]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", endpoint, resp.StatusCode)
	}

	var items []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	logger.Info("simulation running",
		zap.Duration("duration", s.config.Duration),
		zap.Int("workers", s.config.Workers),
	)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			if r < s.config.BookingRatio {
				s.doBooking(ctx, rng)
			} else if r < s.config.BookingRatio+s.config.CompleteRatio {
				s.doComplete(ctx, rng)
			} else {
				switch rng.Intn(3) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doFilterByDoctor(ctx, rng)
				case 2:
					s.doGetAll(ctx)
				}
			}
		}
	}
}

func pick(rng *rand.Rand, ids []int64) int64 {
	return ids[rng.Intn(len(ids))]
}

// randomSlot returns a minute-aligned time within the configured horizon.
func (s *Simulator) randomSlot(rng *rand.Rand) time.Time {
	minutes := int(s.config.Horizon / time.Minute)
	return time.Now().UTC().Truncate(time.Minute).Add(time.Duration(1+rng.Intn(minutes)) * time.Minute)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	body, _ := json.Marshal(map[string]any{
		"patientId":   pick(rng, s.pool.Patients),
		"doctorId":    pick(rng, s.pool.Doctors),
		"clinicId":    pick(rng, s.pool.Clinics),
		"scheduledAt": s.randomSlot(rng).Format(time.RFC3339),
	})

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/Consulta", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var appt struct {
				ID     int64  `json:"id"`
				Status string `json:"status"`
			}
			if json.NewDecoder(resp.Body).Decode(&appt) == nil && appt.ID != 0 {
				s.pool.AddAppointment(appt.ID)
				// the booking is stored either way, but a clash leaves it waiting
				if appt.Status == "AwaitingSlot" {
					conflict = true
				} else {
					success = true
				}
			}
		}
	}

	if ctx.Err() != nil {
		return
	}
	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doComplete(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	body, _ := json.Marshal(fmt.Sprintf("simulated visit %d", rng.Intn(1000)))

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/Consulta/Realizar/%d", s.config.APIBaseURL, apptID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusUnprocessableEntity {
			conflict = true
		}
	}

	if ctx.Err() != nil {
		return
	}
	s.metrics.Complete.Record(latency, success, conflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	s.timedGet(ctx, &s.metrics.ReadByID, fmt.Sprintf("%s/Consulta/%d", s.config.APIBaseURL, apptID))
}

func (s *Simulator) doFilterByDoctor(ctx context.Context, rng *rand.Rand) {
	from := time.Now().UTC()
	q := url.Values{}
	q.Set("doctorId", strconv.FormatInt(pick(rng, s.pool.Doctors), 10))
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", from.Add(s.config.Horizon).Format(time.RFC3339))

	s.timedGet(ctx, &s.metrics.Filter, s.config.APIBaseURL+"/Consulta/Filtro?"+q.Encode())
}

func (s *Simulator) doGetAll(ctx context.Context) {
	s.timedGet(ctx, &s.metrics.GetAll, s.config.APIBaseURL+"/Consulta/GetAll")
}

func (s *Simulator) timedGet(ctx context.Context, om *OperationMetrics, endpoint string) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	if ctx.Err() != nil {
		return
	}
	om.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", "Awaiting slot", &s.metrics.Booking)
	printOperationReport("Complete", "Invalid state", &s.metrics.Complete)
	printOperationReport("Read by ID", "", &s.metrics.ReadByID)
	printOperationReport("Filter by Doctor", "", &s.metrics.Filter)
	printOperationReport("Get All", "", &s.metrics.GetAll)
}

func printOperationReport(name, conflictLabel string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  %s: %d (%.1f%%)\n", conflictLabel, conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
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

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
