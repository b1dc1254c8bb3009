package main

import (
	"bytes"
	"context"
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

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/auth"
	"github.com/hackgods/telehealth-social/internal/config"
	"github.com/hackgods/telehealth-social/internal/db"
	"github.com/hackgods/telehealth-social/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	FollowRatio  float64
	LikeRatio    float64
	BookingRatio float64
	ReadRatio    float64
	UserLimit    int
	HotTargets   int
	Base         config.Config
}

// DataPool holds the ids the workers pick from. Hot targets are a handful of
// professionals and posts that every worker hammers to provoke races.
type DataPool struct {
	Patients      []uuid.UUID
	Professionals []uuid.UUID
	Posts         []uuid.UUID
	tokens        map[uuid.UUID]string
}

func (dp *DataPool) token(id uuid.UUID) string { return dp.tokens[id] }

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

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	pick := func(pct int) time.Duration {
		idx := len(latencies) * pct / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), pick(50), pick(95), latencies[len(latencies)-1]
}

type Metrics struct {
	Follow  OperationMetrics
	Like    OperationMetrics
	Booking OperationMetrics
	Feed    OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     *zap.Logger
}

func main() {
	cfg := loadConfig()

	zlog, err := logger.New(cfg.Base.Env, cfg.Base.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := validateConfig(cfg); err != nil {
		zlog.Fatal("invalid config", zap.Error(err))
	}

	zlog.Info("simulator starting",
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Float64("follow", cfg.FollowRatio),
		zap.Float64("like", cfg.LikeRatio),
		zap.Float64("booking", cfg.BookingRatio),
		zap.Float64("read", cfg.ReadRatio))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.Base.PostgresDSN, zlog)
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		zlog.Fatal("load data pool", zap.Error(err))
	}

	zlog.Info("data pool loaded",
		zap.Int("patients", len(dataPool.Patients)),
		zap.Int("hot_professionals", len(dataPool.Professionals)),
		zap.Int("hot_posts", len(dataPool.Posts)))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    zlog,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 20),
		FollowRatio:  getFloat("SIM_FOLLOW_RATIO", 0.3),
		LikeRatio:    getFloat("SIM_LIKE_RATIO", 0.3),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.2),
		UserLimit:    getInt("SIM_USER_LIMIT", 2000),
		HotTargets:   getInt("SIM_HOT_TARGETS", 5),
		Base:         baseCfg,
	}

	total := cfg.FollowRatio + cfg.LikeRatio + cfg.BookingRatio + cfg.ReadRatio
	if total > 0 {
		cfg.FollowRatio /= total
		cfg.LikeRatio /= total
		cfg.BookingRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.HotTargets <= 0 {
		return fmt.Errorf("SIM_HOT_TARGETS must be > 0")
	}
	return nil
}

func queryIDs(ctx context.Context, pool *pgxpool.Pool, sql string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, sql, limit)
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

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{tokens: make(map[uuid.UUID]string)}

	var err error
	dataPool.Patients, err = queryIDs(ctx, pool, `SELECT id FROM patients LIMIT $1`, cfg.UserLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	dataPool.Professionals, err = queryIDs(ctx, pool, `SELECT id FROM professionals ORDER BY created_at LIMIT $1`, cfg.HotTargets)
	if err != nil {
		return nil, fmt.Errorf("load professionals: %w", err)
	}
	dataPool.Posts, err = queryIDs(ctx, pool, `SELECT id FROM posts WHERE active ORDER BY created_at DESC LIMIT $1`, cfg.HotTargets)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded, run the seed first")
	}
	if len(dataPool.Professionals) == 0 {
		return nil, fmt.Errorf("no professionals loaded")
	}

	issuer := auth.NewIssuer(cfg.Base.JWTSecret, cfg.Base.JWTIssuer, cfg.Duration+time.Hour)
	for _, id := range dataPool.Patients {
		token, err := issuer.Issue(id)
		if err != nil {
			return nil, err
		}
		dataPool.tokens[id] = token
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
			r := rng.Float64()
			switch {
			case r < s.config.FollowRatio:
				s.doFollow(ctx, rng, patient)
			case r < s.config.FollowRatio+s.config.LikeRatio:
				s.doLike(ctx, rng, patient)
			case r < s.config.FollowRatio+s.config.LikeRatio+s.config.BookingRatio:
				s.doBooking(ctx, rng, patient)
			default:
				s.doFeed(ctx, rng, patient)
			}
		}
	}
}

type result struct {
	status  int
	errCode string
	body    []byte
}

func (s *Simulator) call(ctx context.Context, method, path string, caller uuid.UUID, payload any) (*result, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.pool.token(caller))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	res := &result{status: resp.StatusCode, body: raw}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		res.errCode = e.Error
	}
	return res, nil
}

func (s *Simulator) record(om *OperationMetrics, start time.Time, res *result, err error, okStatus int) {
	latency := time.Since(start)
	if err != nil {
		om.Record(latency, false, false)
		return
	}
	om.Record(latency, res.status == okStatus, res.errCode == "conflict")
}

// doFollow toggles a follow on a hot professional. Concurrent follows of the
// same pair must produce one success and conflicts, never an error.
func (s *Simulator) doFollow(ctx context.Context, rng *rand.Rand, patient uuid.UUID) {
	target := s.pool.Professionals[rng.Intn(len(s.pool.Professionals))]
	payload := map[string]string{"following_id": target.String()}

	if rng.Intn(4) == 0 {
		_, _ = s.call(ctx, http.MethodDelete, "/connections/unfollow", patient, payload)
		return
	}

	start := time.Now()
	res, err := s.call(ctx, http.MethodPost, "/connections/follow", patient, payload)
	s.record(&s.metrics.Follow, start, res, err, http.StatusCreated)
}

func (s *Simulator) doLike(ctx context.Context, rng *rand.Rand, patient uuid.UUID) {
	if len(s.pool.Posts) == 0 {
		return
	}
	post := s.pool.Posts[rng.Intn(len(s.pool.Posts))]
	path := "/posts/" + post.String() + "/like"

	if rng.Intn(4) == 0 {
		_, _ = s.call(ctx, http.MethodDelete, path, patient, nil)
		return
	}

	start := time.Now()
	res, err := s.call(ctx, http.MethodPost, path, patient, nil)
	s.record(&s.metrics.Like, start, res, err, http.StatusOK)
}

// doBooking fetches the open slots of a hot professional for a random day in
// the next week and books the first one, racing every other worker for it.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, patient uuid.UUID) {
	professional := s.pool.Professionals[rng.Intn(len(s.pool.Professionals))]
	day := time.Now().AddDate(0, 0, 1+rng.Intn(7)).Format("2006-01-02")

	res, err := s.call(ctx, http.MethodGet, "/profissionais/"+professional.String()+"/slots?data="+day, patient, nil)
	if err != nil || res.status != http.StatusOK {
		return
	}
	var slots struct {
		Slots []struct {
			Horario time.Time `json:"horario"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(res.body, &slots); err != nil || len(slots.Slots) == 0 {
		return
	}

	start := time.Now()
	res, err = s.call(ctx, http.MethodPost, "/consultas", patient, map[string]any{
		"profissional_id": professional.String(),
		"horario":         slots.Slots[0].Horario,
	})
	s.record(&s.metrics.Booking, start, res, err, http.StatusCreated)
}

func (s *Simulator) doFeed(ctx context.Context, rng *rand.Rand, patient uuid.UUID) {
	filters := []string{"all", "following", "trending"}
	path := "/posts/feed?filter=" + filters[rng.Intn(len(filters))] + "&limit=20"

	start := time.Now()
	res, err := s.call(ctx, http.MethodGet, path, patient, nil)
	s.record(&s.metrics.Feed, start, res, err, http.StatusOK)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Follow", &s.metrics.Follow)
	printOperationReport("Like", &s.metrics.Like)
	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Feed", &s.metrics.Feed)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, p50, p95, max := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
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

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
