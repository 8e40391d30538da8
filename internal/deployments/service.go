package deployments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/EternisAI/bot-deployer/internal/heroku"
	"github.com/EternisAI/bot-deployer/internal/quota"
	"github.com/google/uuid"
)

const (
	sessionConfigVar = "SESSION_ID"
	maxTokenAttempts = 3
)

// Provisioner creates and destroys apps on the hosting provider.
type Provisioner interface {
	CreateApp(ctx context.Context, name string) error
	SetConfig(ctx context.Context, name string, vars map[string]string) error
	TriggerBuild(ctx context.Context, name, sourceURL string) error
	DeleteApp(ctx context.Context, name string) error
}

type QuotaChecker interface {
	Check(ctx context.Context, owner string) (quota.Result, error)
}

type Service struct {
	store       Store
	provisioner Provisioner
	quota       QuotaChecker
	sources     map[string]string
	now         func() time.Time
}

// NewService wires the deployment lifecycle. sources maps each supported bot
// type to the source archive its builds are created from.
func NewService(store Store, provisioner Provisioner, quotas QuotaChecker, sources map[string]string) *Service {
	normalized := make(map[string]string, len(sources))
	for botType, url := range sources {
		normalized[strings.ToLower(strings.TrimSpace(botType))] = url
	}
	return &Service{
		store:       store,
		provisioner: provisioner,
		quota:       quotas,
		sources:     normalized,
		now:         time.Now,
	}
}

// BotTypes returns the supported bot types in sorted order.
func (s *Service) BotTypes() []string {
	types := make([]string, 0, len(s.sources))
	for t := range s.sources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Deploy validates the request, checks the owner's quota, provisions the app
// on the provider and records it. The build is triggered but not awaited.
// Provider calls are never retried.
func (s *Service) Deploy(ctx context.Context, req DeployRequest) (DeployResult, error) {
	owner := normalizeOwner(req.Owner)
	if owner == "" {
		return DeployResult{}, ErrMissingOwner
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return DeployResult{}, ErrMissingSession
	}
	botType := strings.ToLower(strings.TrimSpace(req.BotType))
	sourceURL, ok := s.sources[botType]
	if !ok {
		return DeployResult{}, fmt.Errorf("%w: %q", ErrUnsupportedBotType, req.BotType)
	}

	q, err := s.quota.Check(ctx, owner)
	if err != nil {
		return DeployResult{}, fmt.Errorf("check quota: %w", err)
	}
	if !q.Allowed {
		slog.Info("Deployment quota exceeded", "owner", owner, "current", q.Current, "limit", q.Limit)
		return DeployResult{}, &QuotaExceededError{Current: q.Current, Limit: q.Limit}
	}

	appName, err := resolveAppName(req.AppName, botType)
	if err != nil {
		return DeployResult{}, err
	}

	exists, err := s.store.AppNameExists(ctx, appName)
	if err != nil {
		return DeployResult{}, err
	}
	if exists {
		return DeployResult{}, fmt.Errorf("%w: %s", ErrDuplicateAppName, appName)
	}

	vars := make(map[string]string, len(req.Config)+1)
	for k, v := range req.Config {
		vars[k] = v
	}
	vars[sessionConfigVar] = sessionID

	if err := s.provision(ctx, appName, vars, sourceURL); err != nil {
		return DeployResult{}, err
	}

	d := Deployment{
		Owner:   owner,
		AppName: appName,
		BotType: botType,
		ExtraConfig: ExtraConfig{
			SessionID: sessionID,
			Config:    req.Config,
		},
		CreatedAt: s.now(),
	}
	created, err := s.record(ctx, d)
	if err != nil {
		slog.Error("Remote app exists without a record",
			"orphaned_app", appName,
			"owner", owner,
			"error", err)
		return DeployResult{}, err
	}

	slog.Info("Bot deployed", "app", appName, "owner", owner, "bot_type", botType)
	return DeployResult{Token: created.AccessToken, AppName: created.AppName}, nil
}

func (s *Service) provision(ctx context.Context, appName string, vars map[string]string, sourceURL string) error {
	if err := s.provisioner.CreateApp(ctx, appName); err != nil {
		if heroku.IsNameTaken(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateAppName, appName)
		}
		slog.Error("Failed to create remote app", "app", appName, "error", err)
		return &ProvisioningError{Step: "create app", Err: err}
	}

	if err := s.provisioner.SetConfig(ctx, appName, vars); err != nil {
		slog.Error("Failed to set config vars, remote app left behind",
			"orphaned_app", appName, "error", err)
		return &ProvisioningError{Step: "set config", Err: err}
	}

	if err := s.provisioner.TriggerBuild(ctx, appName, sourceURL); err != nil {
		slog.Error("Failed to trigger build, remote app left behind",
			"orphaned_app", appName, "error", err)
		return &ProvisioningError{Step: "trigger build", Err: err}
	}
	return nil
}

// record inserts d under a fresh token. A token collision only regenerates
// the token; an app name collision is returned as is.
func (s *Service) record(ctx context.Context, d Deployment) (Deployment, error) {
	for attempt := 1; ; attempt++ {
		d.AccessToken = uuid.NewString()
		created, err := s.store.Create(ctx, d)
		if errors.Is(err, ErrDuplicateToken) && attempt < maxTokenAttempts {
			continue
		}
		return created, err
	}
}

// ListBots returns every deployment owned by the owner of token.
func (s *Service) ListBots(ctx context.Context, token string) ([]Bot, error) {
	d, err := s.lookupToken(ctx, token)
	if err != nil {
		return nil, err
	}

	deployments, err := s.store.ListByOwner(ctx, d.Owner)
	if err != nil {
		return nil, err
	}

	bots := make([]Bot, len(deployments))
	for i, dep := range deployments {
		bots[i] = Bot{
			Name:      dep.AppName,
			Type:      dep.BotType,
			CreatedAt: dep.CreatedAt,
		}
	}
	return bots, nil
}

// CountDeployments returns the number of deployments for owner, compared
// case-insensitively.
func (s *Service) CountDeployments(ctx context.Context, owner string) (int64, error) {
	owner = normalizeOwner(owner)
	if owner == "" {
		return 0, nil
	}
	return s.store.CountByOwner(ctx, owner)
}

// DeleteBot removes the app a token was issued for. The remote app is always
// deleted first; if that fails the local record is still removed so a stale
// record never blocks the owner from deploying again.
func (s *Service) DeleteBot(ctx context.Context, appName, token string) error {
	d, err := s.lookupToken(ctx, token)
	if err != nil {
		return err
	}
	if d.AppName != appName {
		slog.Warn("Token used to delete another app",
			"token_app", d.AppName,
			"requested_app", appName)
		return ErrNotAuthorized
	}

	if err := s.provisioner.DeleteApp(ctx, appName); err != nil {
		slog.Error("Failed to delete remote app, removing record anyway",
			"app", appName, "owner", d.Owner, "error", err)
	}

	if err := s.store.DeleteByAppName(ctx, appName); err != nil {
		return err
	}

	slog.Info("Bot deleted", "app", appName, "owner", d.Owner)
	return nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) lookupToken(ctx context.Context, token string) (Deployment, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Deployment{}, ErrInvalidToken
	}
	d, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Deployment{}, ErrInvalidToken
		}
		return Deployment{}, err
	}
	return d, nil
}

func normalizeOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}
