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

	"github.com/brianvoe/gofakeit/v7"
)

type SimConfig struct {
	APIBaseURL string
	ClinicSlug string
	Duration   time.Duration
	Workers    int
	DaysAhead  int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, rejected bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if rejected {
		atomic.AddInt64(&om.Rejected, 1)
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
	Start         OperationMetrics
	Message       OperationMetrics
	Conversations OperationMetrics
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	metrics Metrics
}

type startResponse struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
	Done      bool   `json:"done"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: base=%s clinic=%s duration=%s workers=%d",
		cfg.APIBaseURL, cfg.ClinicSlug, cfg.Duration, cfg.Workers)

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		ClinicSlug: getEnv("SIM_CLINIC_SLUG", "demo"),
		Duration:   getDuration("SIM_DURATION", 30*time.Second),
		Workers:    getInt("SIM_WORKERS", 5),
		DaysAhead:  getInt("SIM_DAYS_AHEAD", 14),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
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
			s.runConversation(ctx, rng)
		}
	}
}

// runConversation walks a whole booking dialog: name, phone, specialty,
// date, slot, doctor, confirmation. A "no hay horarios" reply makes it
// retry with the next day until the horizon runs out.
func (s *Simulator) runConversation(ctx context.Context, rng *rand.Rand) {
	convStart := time.Now()

	sessionID, ok := s.startSession(ctx)
	if !ok {
		s.metrics.Conversations.Record(time.Since(convStart), false, false)
		return
	}

	name := gofakeit.FirstName() + " " + gofakeit.LastName()
	phone := fmt.Sprintf("55%08d", rng.Intn(100000000))
	specialty := strconv.Itoa(1 + rng.Intn(3))
	slot := strconv.Itoa(1 + rng.Intn(3))
	doctor := strconv.Itoa(1 + rng.Intn(3))

	for _, text := range []string{name, phone, specialty} {
		if _, ok := s.sendMessage(ctx, sessionID, text); !ok {
			s.metrics.Conversations.Record(time.Since(convStart), false, false)
			return
		}
	}

	// Walk forward from tomorrow until a day with open slots turns up.
	dayOffset := 1 + rng.Intn(s.config.DaysAhead)
	var gotSlots bool
	for tries := 0; tries < s.config.DaysAhead; tries++ {
		date := time.Now().AddDate(0, 0, dayOffset+tries).Format("2006-01-02")
		resp, ok := s.sendMessage(ctx, sessionID, date)
		if !ok {
			s.metrics.Conversations.Record(time.Since(convStart), false, false)
			return
		}
		if strings.Contains(resp.Prompt, "1)") {
			gotSlots = true
			break
		}
	}
	if !gotSlots {
		s.metrics.Conversations.Record(time.Since(convStart), false, true)
		return
	}

	for _, text := range []string{slot, doctor} {
		if _, ok := s.sendMessage(ctx, sessionID, text); !ok {
			s.metrics.Conversations.Record(time.Since(convStart), false, false)
			return
		}
	}

	resp, ok := s.sendMessage(ctx, sessionID, "sí")
	if !ok {
		s.metrics.Conversations.Record(time.Since(convStart), false, false)
		return
	}

	// A lost slot sends the dialog back to the date question; count it
	// as a rejection rather than an error.
	s.metrics.Conversations.Record(time.Since(convStart), resp.Done, !resp.Done)
}

func (s *Simulator) startSession(ctx context.Context) (string, bool) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/voice/start", nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("X-Clinic-Slug", s.config.ClinicSlug)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		s.metrics.Start.Record(latency, false, false)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		s.metrics.Start.Record(latency, false, false)
		return "", false
	}

	var sr startResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &sr); err != nil || sr.SessionID == "" {
		s.metrics.Start.Record(latency, false, false)
		return "", false
	}

	s.metrics.Start.Record(latency, true, false)
	return sr.SessionID, true
}

func (s *Simulator) sendMessage(ctx context.Context, sessionID, text string) (*messageResponse, bool) {
	start := time.Now()

	body, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"text":       text,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/voice/message", bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Clinic-Slug", s.config.ClinicSlug)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		s.metrics.Message.Record(latency, false, false)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.metrics.Message.Record(latency, false, false)
		return nil, false
	}

	var mr messageResponse
	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &mr); err != nil {
		s.metrics.Message.Record(latency, false, false)
		return nil, false
	}

	s.metrics.Message.Record(latency, true, false)
	return &mr, true
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Start session", &s.metrics.Start)
	printOperationReport("Message", &s.metrics.Message)
	printOperationReport("Conversations", &s.metrics.Conversations)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	rejected := atomic.LoadInt64(&om.Rejected)
	errs := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if rejected > 0 {
		fmt.Printf("  Rejected: %d (%.1f%%)\n", rejected, float64(rejected)/float64(total)*100)
	}
	if errs > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errs, float64(errs)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

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
