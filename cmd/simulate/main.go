package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/auth"
	"github.com/hackgods/consultation-booking/internal/config"
	"github.com/hackgods/consultation-booking/internal/db"
	"github.com/hackgods/consultation-booking/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type SimConfig struct {
	APIBaseURL  string
	Rounds      int
	Concurrency int
	DoctorLimit int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch status {
	case http.StatusCreated:
		atomic.AddInt64(&om.Success, 1)
	case http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Percentiles() (p50, p95, max time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	at := func(pct int) time.Duration {
		idx := len(latencies) * pct / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}
	return at(50), at(95), latencies[len(latencies)-1]
}

// Simulator fires bursts of identical bookings and checks that each
// (doctor, instant) pair is booked at most once.
type Simulator struct {
	config   SimConfig
	client   *http.Client
	verifier *auth.Verifier
	logger   logrus.FieldLogger
	metrics  OperationMetrics
}

type bookRequest struct {
	DoctorID    string    `json:"doctorId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

func main() {
	var sc SimConfig
	flag.StringVar(&sc.APIBaseURL, "base-url", "http://localhost:8080", "api-server base URL")
	flag.IntVar(&sc.Rounds, "rounds", 20, "number of distinct instants to contend for")
	flag.IntVar(&sc.Concurrency, "concurrency", 50, "identical booking requests per round")
	flag.IntVar(&sc.DoctorLimit, "doctors", 10, "number of available doctors to spread rounds over")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("dev", "info").WithError(err).Fatal("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	doctors, err := loadDoctors(ctx, cfg.PostgresDSN, sc.DoctorLimit)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("load doctors")
	}
	if len(doctors) == 0 {
		logger.Fatal("no available doctors, run cmd/seed first")
	}

	sim := &Simulator{
		config:   sc,
		client:   &http.Client{Timeout: 10 * time.Second},
		verifier: auth.NewVerifier(cfg.JWTSecret),
		logger:   logger,
	}

	violations := sim.Run(context.Background(), doctors)
	sim.report()

	if violations > 0 {
		logger.WithField("violations", violations).Error("double bookings detected")
		os.Exit(1)
	}
	logger.Info("no double bookings")
}

func loadDoctors(ctx context.Context, dsn string, limit int) ([]uuid.UUID, error) {
	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `SELECT id FROM doctors WHERE is_available ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Run returns the number of rounds in which more than one booking succeeded.
func (s *Simulator) Run(ctx context.Context, doctors []uuid.UUID) int {
	// far enough ahead that reruns rarely collide with earlier bookings
	base := time.Now().UTC().Truncate(time.Hour).Add(time.Duration(uuid.New().ID()%10000) * time.Hour)
	violations := 0

	for round := 0; round < s.config.Rounds; round++ {
		doctorID := doctors[round%len(doctors)]
		at := base.Add(time.Duration(round) * 15 * time.Minute)

		successes := s.burst(ctx, doctorID, at)
		entry := s.logger.WithFields(logrus.Fields{
			"round":        round,
			"doctor_id":    doctorID,
			"scheduled_at": at.Format(time.RFC3339),
			"successes":    successes,
		})
		if successes > 1 {
			violations++
			entry.Error("slot booked more than once")
			continue
		}
		entry.Info("round complete")
	}

	return violations
}

func (s *Simulator) burst(ctx context.Context, doctorID uuid.UUID, at time.Time) int64 {
	var (
		wg        sync.WaitGroup
		successes int64
		start     = make(chan struct{})
	)

	for i := 0; i < s.config.Concurrency; i++ {
		token, err := s.verifier.Issue(auth.Principal{ID: uuid.New(), Role: auth.RolePatient}, time.Minute)
		if err != nil {
			s.logger.WithError(err).Error("issue token")
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			status, latency, err := s.book(ctx, token, bookRequest{DoctorID: doctorID.String(), ScheduledAt: at})
			if err != nil {
				s.logger.WithError(err).Warn("booking request failed")
			}
			s.metrics.Record(latency, status)
			if status == http.StatusCreated {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}

	close(start)
	wg.Wait()
	return successes
}

func (s *Simulator) book(ctx context.Context, token string, req bookRequest) (int, time.Duration, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/consultations", bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		return resp.StatusCode, latency, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, latency, nil
}

func (s *Simulator) report() {
	p50, p95, max := s.metrics.Percentiles()
	s.logger.WithFields(logrus.Fields{
		"total":    atomic.LoadInt64(&s.metrics.Total),
		"created":  atomic.LoadInt64(&s.metrics.Success),
		"conflict": atomic.LoadInt64(&s.metrics.Conflict),
		"error":    atomic.LoadInt64(&s.metrics.Error),
		"p50":      p50.String(),
		"p95":      p95.String(),
		"max":      max.String(),
	}).Info("booking summary")
}
