package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// FakeHeroku is a minimal in-memory Platform API: apps can be created,
// configured, built and deleted, and names are unique.
type FakeHeroku struct {
	Server *httptest.Server

	mu     sync.Mutex
	apps   map[string]map[string]string
	builds map[string][]string
}

func NewFakeHeroku() *FakeHeroku {
	f := &FakeHeroku{
		apps:   make(map[string]map[string]string),
		builds: make(map[string][]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *FakeHeroku) Close() {
	f.Server.Close()
}

func (f *FakeHeroku) HasApp(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.apps[name]
	return ok
}

func (f *FakeHeroku) ConfigVars(name string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apps[name]
}

func (f *FakeHeroku) Builds(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds[name]
}

// Remove deletes an app behind the broker's back.
func (f *FakeHeroku) Remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.apps, name)
}

func (f *FakeHeroku) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials provided.")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "apps":
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, exists := f.apps[body.Name]; exists {
			writeAPIError(w, http.StatusUnprocessableEntity, "invalid_params", "Name is already taken")
			return
		}
		f.apps[body.Name] = make(map[string]string)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"` + body.Name + `"}`))

	case len(parts) == 3 && parts[2] == "config-vars" && r.Method == http.MethodPatch:
		vars, ok := f.apps[parts[1]]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "not_found", "Couldn't find that app.")
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		for k, v := range body {
			vars[k] = v
		}
		w.WriteHeader(http.StatusOK)

	case len(parts) == 3 && parts[2] == "builds" && r.Method == http.MethodPost:
		if _, ok := f.apps[parts[1]]; !ok {
			writeAPIError(w, http.StatusNotFound, "not_found", "Couldn't find that app.")
			return
		}
		var body struct {
			SourceBlob struct {
				URL string `json:"url"`
			} `json:"source_blob"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.builds[parts[1]] = append(f.builds[parts[1]], body.SourceBlob.URL)
		w.WriteHeader(http.StatusCreated)

	case len(parts) == 2 && parts[0] == "apps" && r.Method == http.MethodDelete:
		if _, ok := f.apps[parts[1]]; !ok {
			writeAPIError(w, http.StatusNotFound, "not_found", "Couldn't find that app.")
			return
		}
		delete(f.apps, parts[1])
		w.WriteHeader(http.StatusOK)

	default:
		writeAPIError(w, http.StatusNotFound, "not_found", "Unknown route.")
	}
}

func writeAPIError(w http.ResponseWriter, status int, id, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "message": message})
}
