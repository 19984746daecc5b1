package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/common/pagination"
	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
)

/* ─────────────────────────── test fixtures ─────────────────────────── */

var (
	wsID    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherWS = uuid.MustParse("99999999-9999-9999-9999-999999999999")
)

type stubRepo struct {
	clients map[uuid.UUID]*entity.Client
}

func newStubRepo() *stubRepo {
	return &stubRepo{clients: make(map[uuid.UUID]*entity.Client)}
}

func (r *stubRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]*entity.Client, error) {
	var out []*entity.Client
	for _, c := range r.clients {
		if c.WorkspaceID == workspaceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubRepo) ListPaginated(ctx context.Context, workspaceID uuid.UUID, offset, limit int) ([]*entity.Client, error) {
	all, _ := r.List(ctx, workspaceID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *stubRepo) Count(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	all, _ := r.List(ctx, workspaceID)
	return int64(len(all)), nil
}

func (r *stubRepo) Get(ctx context.Context, workspaceID, id uuid.UUID) (*entity.Client, error) {
	c, ok := r.clients[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, nil
	}
	return c, nil
}

func (r *stubRepo) Search(ctx context.Context, workspaceID uuid.UUID, keyword string) ([]*entity.Client, error) {
	var out []*entity.Client
	for _, c := range r.clients {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if strings.Contains(strings.ToLower(c.FullName()), strings.ToLower(keyword)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubRepo) Create(ctx context.Context, c *entity.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return nil
}

func (r *stubRepo) Update(ctx context.Context, c *entity.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *stubRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	c, ok := r.clients[id]
	if !ok || c.WorkspaceID != workspaceID {
		return entity.ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

func newService(repo *stubRepo) *clientUC.Service {
	return &clientUC.Service{Repo: repo}
}

func seedClient(repo *stubRepo, workspaceID uuid.UUID, first, last string) *entity.Client {
	c := &entity.Client{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		FirstName:   first,
		LastName:    last,
	}
	repo.clients[c.ID] = c
	return c
}

// scopedRequest builds a request carrying the test workspace, as the auth
// middleware would after validating a token.
func scopedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(auth.WithWorkspace(req.Context(), wsID))
}

/* ─────────────────────────── handler tests ─────────────────────────── */

func TestListHandler_Paginated(t *testing.T) {
	repo := newStubRepo()
	seedClient(repo, wsID, "Dana", "Levi")
	seedClient(repo, wsID, "Noam", "Cohen")
	seedClient(repo, otherWS, "Stranger", "Elsewhere")

	h := ListHandler{
		Svc:           newService(repo),
		PaginationCfg: pagination.DefaultConfig(),
		Logger:        slog.Default(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients?page=1&limit=10", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp pagination.Response[DTO]
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 clients from own workspace, got %d", len(resp.Data))
	}
	if resp.Pagination.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Pagination.Total)
	}
}

func TestListHandler_MissingWorkspace(t *testing.T) {
	h := ListHandler{
		Svc:           newService(newStubRepo()),
		PaginationCfg: pagination.DefaultConfig(),
		Logger:        slog.Default(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/clients", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestListHandler_InvalidPagination(t *testing.T) {
	h := ListHandler{
		Svc:           newService(newStubRepo()),
		PaginationCfg: pagination.DefaultConfig(),
		Logger:        slog.Default(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients?page=-1", ""))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestSearchHandler(t *testing.T) {
	repo := newStubRepo()
	seedClient(repo, wsID, "Dana", "Levi")
	seedClient(repo, wsID, "Noam", "Cohen")

	h := SearchHandler{Svc: newService(repo)}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients/search?keyword=dana", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var out []DTO
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out) != 1 || out[0].FullName != "Dana Levi" {
		t.Errorf("unexpected search result: %+v", out)
	}
}

func TestSearchHandler_MissingKeyword(t *testing.T) {
	h := SearchHandler{Svc: newService(newStubRepo())}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients/search", ""))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestGetHandler(t *testing.T) {
	repo := newStubRepo()
	c := seedClient(repo, wsID, "Dana", "Levi")

	h := GetHandler{Svc: newService(repo)}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients/"+c.ID.String(), ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var out DTO
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.ID != c.ID.String() || out.FullName != "Dana Levi" {
		t.Errorf("unexpected client: %+v", out)
	}
}

func TestGetHandler_NotFound(t *testing.T) {
	h := GetHandler{Svc: newService(newStubRepo())}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients/"+uuid.New().String(), ""))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestGetHandler_WorkspaceIsolation(t *testing.T) {
	repo := newStubRepo()
	foreign := seedClient(repo, otherWS, "Stranger", "Elsewhere")

	h := GetHandler{Svc: newService(repo)}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients/"+foreign.ID.String(), ""))

	// A client in another workspace must be indistinguishable from a
	// missing one.
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for foreign client, got %d", rec.Code)
	}
}

func TestGetHandler_InvalidID(t *testing.T) {
	h := GetHandler{Svc: newService(newStubRepo())}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("GET", "/clients/123", ""))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestCreateHandler(t *testing.T) {
	repo := newStubRepo()
	h := CreateHandler{Svc: newService(repo)}

	body := `{"first_name":"Dana","last_name":"Levi","email":"dana@example.com"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("POST", "/clients", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var out DTO
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.FullName != "Dana Levi" {
		t.Errorf("unexpected created client: %+v", out)
	}

	created, ok := repo.clients[uuid.MustParse(out.ID)]
	if !ok {
		t.Fatal("client not persisted")
	}
	if created.WorkspaceID != wsID {
		t.Errorf("client persisted with workspace %s, want %s", created.WorkspaceID, wsID)
	}
}

func TestCreateHandler_MissingFirstName(t *testing.T) {
	h := CreateHandler{Svc: newService(newStubRepo())}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("POST", "/clients", `{"last_name":"Levi"}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestCreateHandler_InvalidJSON(t *testing.T) {
	h := CreateHandler{Svc: newService(newStubRepo())}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("POST", "/clients", "{not json"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestUpdateHandler_PartialUpdate(t *testing.T) {
	repo := newStubRepo()
	c := seedClient(repo, wsID, "Dana", "Levi")

	h := UpdateHandler{Svc: newService(repo)}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("PUT", "/clients/"+c.ID.String(), `{"phone":"+972-50-1234567"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out DTO
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Phone != "+972-50-1234567" {
		t.Errorf("expected updated phone, got %q", out.Phone)
	}
	if out.FirstName != "Dana" {
		t.Errorf("first name should be unchanged, got %q", out.FirstName)
	}
}

func TestUpdateHandler_NotFound(t *testing.T) {
	h := UpdateHandler{Svc: newService(newStubRepo())}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("PUT", "/clients/"+uuid.New().String(), `{"phone":"1"}`))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestDeleteHandler(t *testing.T) {
	repo := newStubRepo()
	c := seedClient(repo, wsID, "Dana", "Levi")

	h := DeleteHandler{Svc: newService(repo)}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("DELETE", "/clients/"+c.ID.String(), ""))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if _, ok := repo.clients[c.ID]; ok {
		t.Error("client should have been deleted")
	}
}

func TestDeleteHandler_NotFound(t *testing.T) {
	h := DeleteHandler{Svc: newService(newStubRepo())}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, scopedRequest("DELETE", "/clients/"+uuid.New().String(), ""))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
