package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultLimit   = 2
	PremiumLimit   = 5
	allowlistLimit = 1 << 20
	fetchTimeout   = 10 * time.Second
)

type Config struct {
	DefaultLimit int    `mapstructure:"default_limit"`
	PremiumLimit int    `mapstructure:"premium_limit"`
	AllowlistURL string `mapstructure:"allowlist_url"`
}

// Counter reports how many deployments an owner already has.
type Counter interface {
	CountByOwner(ctx context.Context, owner string) (int64, error)
}

type Result struct {
	Allowed bool
	Current int64
	Limit   int64
}

type allowlistEntry struct {
	Username string `json:"username"`
	Limit    int64  `json:"limit"`
}

type Service struct {
	counter    Counter
	config     Config
	httpClient *http.Client
}

func NewService(counter Counter, config Config) *Service {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.PremiumLimit <= 0 {
		config.PremiumLimit = PremiumLimit
	}
	return &Service{
		counter:    counter,
		config:     config,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

// Check compares the owner's existing deployments against their limit. The
// count excludes the deployment being requested.
func (s *Service) Check(ctx context.Context, owner string) (Result, error) {
	owner = strings.ToLower(strings.TrimSpace(owner))

	current, err := s.counter.CountByOwner(ctx, owner)
	if err != nil {
		return Result{}, fmt.Errorf("count deployments: %w", err)
	}

	limit := s.limitFor(ctx, owner)
	return Result{
		Allowed: current < limit,
		Current: current,
		Limit:   limit,
	}, nil
}

func (s *Service) limitFor(ctx context.Context, owner string) int64 {
	limit := int64(s.config.DefaultLimit)
	if s.config.AllowlistURL == "" {
		return limit
	}

	entries, err := s.fetchAllowlist(ctx)
	if err != nil {
		slog.Warn("Allow-list unavailable, using default limit",
			"error", err,
			"owner", owner,
			"limit", limit)
		return limit
	}

	for _, e := range entries {
		if strings.ToLower(strings.TrimSpace(e.Username)) != owner {
			continue
		}
		if e.Limit > 0 {
			return e.Limit
		}
		return int64(s.config.PremiumLimit)
	}
	return limit
}

func (s *Service) fetchAllowlist(ctx context.Context) ([]allowlistEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.AllowlistURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch allow-list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch allow-list: unexpected status %d", resp.StatusCode)
	}

	var entries []allowlistEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, allowlistLimit)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode allow-list: %w", err)
	}
	return entries, nil
}
