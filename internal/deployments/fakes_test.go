package deployments

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/EternisAI/bot-deployer/internal/quota"
	"github.com/google/uuid"
)

// memoryStore enforces the same uniqueness rules as the Postgres schema.
type memoryStore struct {
	mu      sync.Mutex
	byApp   map[string]Deployment
	pingErr error
	writes  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byApp: make(map[string]Deployment)}
}

func (m *memoryStore) CountByOwner(_ context.Context, owner string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, d := range m.byApp {
		if d.Owner == owner {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) AppNameExists(_ context.Context, appName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byApp[appName]
	return ok, nil
}

func (m *memoryStore) Create(_ context.Context, d Deployment) (Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byApp[d.AppName]; ok {
		return Deployment{}, ErrDuplicateAppName
	}
	for _, existing := range m.byApp {
		if existing.AccessToken == d.AccessToken {
			return Deployment{}, ErrDuplicateToken
		}
	}
	d.ID = uuid.NewString()
	m.byApp[d.AppName] = d
	m.writes++
	return d, nil
}

func (m *memoryStore) GetByToken(_ context.Context, token string) (Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byApp {
		if d.AccessToken == token {
			return d, nil
		}
	}
	return Deployment{}, ErrNotFound
}

func (m *memoryStore) ListByOwner(_ context.Context, owner string) ([]Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Deployment
	for _, d := range m.byApp {
		if d.Owner == owner {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AppName < result[j].AppName })
	return result, nil
}

func (m *memoryStore) DeleteByAppName(_ context.Context, appName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byApp[appName]; !ok {
		return ErrNotFound
	}
	delete(m.byApp, appName)
	m.writes++
	return nil
}

func (m *memoryStore) Ping(context.Context) error {
	return m.pingErr
}

func (m *memoryStore) get(appName string) (Deployment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byApp[appName]
	return d, ok
}

func (m *memoryStore) seed(d Deployment) Deployment {
	if d.AccessToken == "" {
		d.AccessToken = uuid.NewString()
	}
	created, err := m.Create(context.Background(), d)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	m.writes = 0
	m.mu.Unlock()
	return created
}

type call struct {
	Op     string
	App    string
	Vars   map[string]string
	Source string
}

type fakeProvisioner struct {
	mu        sync.Mutex
	calls     []call
	createErr error
	configErr error
	buildErr  error
	deleteErr error
}

func (f *fakeProvisioner) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeProvisioner) CreateApp(_ context.Context, name string) error {
	f.record(call{Op: "create", App: name})
	return f.createErr
}

func (f *fakeProvisioner) SetConfig(_ context.Context, name string, vars map[string]string) error {
	f.record(call{Op: "config", App: name, Vars: vars})
	return f.configErr
}

func (f *fakeProvisioner) TriggerBuild(_ context.Context, name, sourceURL string) error {
	f.record(call{Op: "build", App: name, Source: sourceURL})
	return f.buildErr
}

func (f *fakeProvisioner) DeleteApp(_ context.Context, name string) error {
	f.record(call{Op: "delete", App: name})
	return f.deleteErr
}

func (f *fakeProvisioner) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.Op
	}
	return ops
}

type fixedQuota struct {
	result quota.Result
	err    error
}

func (f fixedQuota) Check(context.Context, string) (quota.Result, error) {
	return f.result, f.err
}

var errProvider = errors.New("provider unavailable")
