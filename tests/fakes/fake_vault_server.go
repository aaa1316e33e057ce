package fakes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// Route names recorded in FakeVaultServer.Calls
const (
	RouteLogin   = "login"
	RouteVaults  = "vaults"
	RouteEntries = "entries"
	RouteEntry   = "entry"
)

// FakeEntry is an entry held by the fake server
type FakeEntry struct {
	ID       string
	Name     string
	Password string
}

// FakeVault is a vault held by the fake server
type FakeVault struct {
	ID      string
	Name    string
	Entries []FakeEntry
}

// FakeResponse replaces the normal handling of a route
type FakeResponse struct {
	Status int
	Body   string
}

// RecordedRequest is one request as seen by the fake server
type RecordedRequest struct {
	Route  string
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// FakeVaultServer is an in-process vault server speaking the login, vault
// and entry endpoints.
type FakeVaultServer struct {
	*httptest.Server

	mu sync.Mutex

	// AppKey and AppSecret are the only accepted credentials
	AppKey    string
	AppSecret string

	// Token is issued on login and required on every other call
	Token string

	// TokenUnderData returns {"data":{"tokenId":...}} instead of {"tokenId":...}
	TokenUnderData bool

	Vaults []FakeVault

	// Overrides forces a canned response for a route
	Overrides map[string]FakeResponse

	// Requests records every request in arrival order
	Requests []RecordedRequest
}

// NewFakeVaultServer starts a fake server with one set of valid credentials
// and no vaults. Close it when done.
func NewFakeVaultServer() *FakeVaultServer {
	f := &FakeVaultServer{
		AppKey:    "app-key",
		AppSecret: "app-secret-value",
		Token:     "t1",
		Overrides: make(map[string]FakeResponse),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/login", f.record(RouteLogin, f.handleLogin))
	mux.HandleFunc("GET /api/v1/vault", f.record(RouteVaults, f.authorized(f.handleVaults)))
	mux.HandleFunc("GET /api/v1/vault/{vaultID}/entry", f.record(RouteEntries, f.authorized(f.handleEntries)))
	mux.HandleFunc("GET /api/v1/vault/{vaultID}/entry/{entryID}", f.record(RouteEntry, f.authorized(f.handleEntry)))

	f.Server = httptest.NewServer(mux)
	return f
}

// AddVault adds a vault with its entries
func (f *FakeVaultServer) AddVault(v FakeVault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Vaults = append(f.Vaults, v)
}

// Override forces status and body for every request to route
func (f *FakeVaultServer) Override(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Overrides[route] = FakeResponse{Status: status, Body: body}
}

// Calls returns the route names of all requests received so far
func (f *FakeVaultServer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := make([]string, len(f.Requests))
	for i, r := range f.Requests {
		calls[i] = r.Route
	}
	return calls
}

// LastRequest returns the most recent request to route, or nil
func (f *FakeVaultServer) LastRequest(route string) *RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.Requests) - 1; i >= 0; i-- {
		if f.Requests[i].Route == route {
			r := f.Requests[i]
			return &r
		}
	}
	return nil
}

func (f *FakeVaultServer) record(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.Requests = append(f.Requests, RecordedRequest{
			Route:  route,
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		override, overridden := f.Overrides[route]
		f.mu.Unlock()

		if overridden {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(override.Status)
			_, _ = io.WriteString(w, override.Body)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next(w, r)
	}
}

func (f *FakeVaultServer) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("tokenId") != f.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Invalid token"})
			return
		}
		next(w, r)
	}
}

func (f *FakeVaultServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		AppKey    string `json:"appKey"`
		AppSecret string `json:"appSecret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Malformed login request"})
		return
	}

	if creds.AppKey != f.AppKey || creds.AppSecret != f.AppSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Invalid credentials"})
		return
	}

	if f.TokenUnderData {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]string{"tokenId": f.Token}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokenId": f.Token})
}

func (f *FakeVaultServer) handleVaults(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := make([]map[string]string, 0, len(f.Vaults))
	for _, v := range f.Vaults {
		data = append(data, map[string]string{"id": v.ID, "name": v.Name})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (f *FakeVaultServer) handleEntries(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vault := f.findVault(r.PathValue("vaultID"))
	if vault == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Vault not found"})
		return
	}

	name := r.URL.Query().Get("name")
	data := make([]map[string]string, 0)
	for _, e := range vault.Entries {
		if name == "" || e.Name == name {
			data = append(data, map[string]string{"id": e.ID, "name": e.Name})
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (f *FakeVaultServer) handleEntry(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vault := f.findVault(r.PathValue("vaultID"))
	if vault == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Vault not found"})
		return
	}

	entryID := r.PathValue("entryID")
	for _, e := range vault.Entries {
		if e.ID != entryID {
			continue
		}
		data := map[string]string{"id": e.ID, "name": e.Name}
		if r.URL.Query().Get("includeSensitiveData") == "true" {
			data["password"] = e.Password
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Entry not found"})
}

func (f *FakeVaultServer) findVault(id string) *FakeVault {
	for i := range f.Vaults {
		if f.Vaults[i].ID == id {
			return &f.Vaults[i]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
