package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/jobs"
	"github.com/noah-isme/courses-api/pkg/logger"
)

// JobFetchWeather is the queue name of the weather refresh job.
const JobFetchWeather = "fetch_weather"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

type weatherCache interface {
	Get(ctx context.Context, key string, dest interface{}) (CacheLookup, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// WeatherConfig configures the upstream forecast API and result caching.
type WeatherConfig struct {
	APIURL       string
	Latitude     float64
	Longitude    float64
	HasLocation  bool
	CacheKey     string
	CacheTTL     time.Duration
	Retry        jobs.RetryPolicy
	FetchTimeout time.Duration
}

type weatherJobArgs struct {
	Lat float64
	Lon float64
}

// WeatherService fetches current weather in the background and serves the
// last cached snapshot.
type WeatherService struct {
	cfg     WeatherConfig
	client  *http.Client
	cache   weatherCache
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewWeatherService constructs WeatherService. A nil client uses a client
// bounded by cfg.FetchTimeout.
func NewWeatherService(cfg WeatherConfig, client *http.Client, cache weatherCache, queue jobEnqueuer, metrics *MetricsService, logger *zap.Logger) *WeatherService {
	if cfg.CacheKey == "" {
		cfg.CacheKey = "weather:current"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherService{cfg: cfg, client: client, cache: cache, queue: queue, metrics: metrics, logger: logger}
}

// RequestFetch schedules a background refresh and returns the job id.
// Missing coordinates fall back to the configured location.
func (s *WeatherService) RequestFetch(ctx context.Context, req models.WeatherRequest) (string, error) {
	if s.cfg.APIURL == "" {
		return "", appErrors.Clone(appErrors.ErrUnavailable, "weather api is not configured")
	}
	args := weatherJobArgs{Lat: s.cfg.Latitude, Lon: s.cfg.Longitude}
	hasLat, hasLon := s.cfg.HasLocation, s.cfg.HasLocation
	if req.Lat != nil {
		args.Lat, hasLat = *req.Lat, true
	}
	if req.Lon != nil {
		args.Lon, hasLon = *req.Lon, true
	}
	if !hasLat || !hasLon {
		return "", appErrors.Clone(appErrors.ErrValidation, "lat and lon are required")
	}

	id, err := s.queue.Enqueue(jobs.Job{Name: JobFetchWeather, Args: args, Retry: s.cfg.Retry})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to schedule weather fetch")
	}
	logger.For(ctx, s.logger).Info("weather fetch scheduled", zap.String("job_id", id), zap.Float64("lat", args.Lat), zap.Float64("lon", args.Lon))
	return id, nil
}

// HandleFetchJob is the queue handler of JobFetchWeather.
func (s *WeatherService) HandleFetchJob(ctx context.Context, job jobs.Job) error {
	args, ok := job.Args.(weatherJobArgs)
	if !ok {
		return fmt.Errorf("unexpected weather job args %T", job.Args)
	}
	snapshot, err := s.fetch(ctx, args.Lat, args.Lon)
	s.metrics.ObserveJob(JobFetchWeather, err)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, s.cfg.CacheKey, snapshot, s.cfg.CacheTTL); err != nil {
		return fmt.Errorf("cache weather snapshot: %w", err)
	}
	s.logger.Debug("weather snapshot cached", zap.String("job_id", job.ID), zap.String("time", snapshot.Time))
	return nil
}

// Cached returns the last fetched snapshot and when it was stored.
func (s *WeatherService) Cached(ctx context.Context) (*models.WeatherSnapshot, time.Time, error) {
	var snapshot models.WeatherSnapshot
	lookup, err := s.cache.Get(ctx, s.cfg.CacheKey, &snapshot)
	if err != nil {
		return nil, time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read weather cache")
	}
	if !lookup.Hit {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "cache empty")
	}
	return &snapshot, lookup.StoredAt, nil
}

type forecastResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindDirection float64 `json:"wind_direction_10m"`
	} `json:"current"`
}

func (s *WeatherService) fetch(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error) {
	endpoint, err := url.Parse(s.cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("parse weather api url: %w", err)
	}
	query := endpoint.Query()
	query.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("current", "temperature_2m,wind_speed_10m,wind_direction_10m")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather api returned %d", resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return &models.WeatherSnapshot{
		Temperature:   body.Current.Temperature,
		WindSpeed:     body.Current.WindSpeed,
		WindDirection: body.Current.WindDirection,
		Time:          body.Current.Time,
	}, nil
}
