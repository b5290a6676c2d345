package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strconv"
	"sync"
	"testing"

	apperrors "rentacars/internal/errors"
	"rentacars/internal/entities"
	"rentacars/internal/repository"
)

var testSession = entities.Session{Token: "t1", UserID: "u1"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memRepo is an in-memory CRUD backend.
type memRepo[T entities.Entity[T]] struct {
	mu      sync.Mutex
	items   []T
	next    int
	calls   int
	listErr error
	failErr error
	// tokens records the bearer token of every call, in order.
	tokens []string
	// gate, when set, blocks mutations until it is closed.
	gate chan struct{}
}

func (m *memRepo[T]) wait(ctx context.Context) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
		}
	}
}

func (m *memRepo[T]) List(ctx context.Context, token string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.tokens = append(m.tokens, token)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]T(nil), m.items...), nil
}

func (m *memRepo[T]) Create(ctx context.Context, token string, item T) (T, error) {
	m.wait(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.tokens = append(m.tokens, token)
	if m.failErr != nil {
		var zero T
		return zero, m.failErr
	}
	m.next++
	created := item.WithID("id" + strconv.Itoa(m.next))
	m.items = append(m.items, created)
	return created, nil
}

func (m *memRepo[T]) Update(ctx context.Context, token, id string, item T) (T, error) {
	m.wait(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.tokens = append(m.tokens, token)
	if m.failErr != nil {
		var zero T
		return zero, m.failErr
	}
	updated := item.WithID(id)
	for i := range m.items {
		if m.items[i].EntityID() == id {
			m.items[i] = updated
		}
	}
	return updated, nil
}

func (m *memRepo[T]) Delete(ctx context.Context, token, id string) error {
	m.wait(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.tokens = append(m.tokens, token)
	if m.failErr != nil {
		return m.failErr
	}
	return nil
}

func (m *memRepo[T]) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func customerDraft(nombre string) Draft {
	return Draft{
		"nombre":           nombre,
		"apellido":         "Ruiz",
		"email":            nombre + "@correo.com",
		"telefono":         "555",
		"licenciaConducir": "L-1",
	}
}

func newCustomerEditor(t *testing.T, seed ...entities.Customer) (*ListEditor[entities.Customer], *memRepo[entities.Customer]) {
	t.Helper()
	repo := &memRepo[entities.Customer]{items: seed, next: len(seed)}
	e := NewListEditor(CustomerResource(repo), quietLogger())
	e.Mount(context.Background(), testSession)
	return e, repo
}

func countID[T entities.Entity[T]](items []T, id string) int {
	n := 0
	for _, it := range items {
		if it.EntityID() == id {
			n++
		}
	}
	return n
}

func TestMountLoadsCollection(t *testing.T) {
	e, _ := newCustomerEditor(t, entities.Customer{ID: "c1", Nombre: "Ana"})
	v := e.View()
	if !v.Loaded || v.Loading || v.Mode != ModeIdle {
		t.Fatalf("view state = loaded %v loading %v mode %v", v.Loaded, v.Loading, v.Mode)
	}
	if len(v.Rows) != 1 || v.Rows[0].ID != "c1" {
		t.Fatalf("rows = %+v", v.Rows)
	}
}

func TestCreateAppendsServerEntityOnce(t *testing.T) {
	e, _ := newCustomerEditor(t, entities.Customer{ID: "c1", Nombre: "Ana"})
	e.ToggleCreate()
	if e.View().Mode != ModeCreating {
		t.Fatalf("toggle did not open the create form")
	}

	if err := e.SubmitCreate(context.Background(), customerDraft("Luis")); err != nil {
		t.Fatalf("create: %v", err)
	}
	items := e.Items()
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	created := items[1]
	if created.ID == "" || countID(items, created.ID) != 1 || created.Nombre != "Luis" {
		t.Fatalf("created = %+v", created)
	}
	v := e.View()
	if v.Mode != ModeIdle {
		t.Fatalf("mode after create = %v", v.Mode)
	}
	if v.CreateDraft.Get("nombre") != "" {
		t.Fatalf("create draft not reset: %v", v.CreateDraft)
	}
}

func TestCreateFailureKeepsDraft(t *testing.T) {
	e, repo := newCustomerEditor(t)
	repo.failErr = apperrors.NewHTTPError(http.StatusBadRequest, "Email duplicado")

	err := e.SubmitCreate(context.Background(), customerDraft("Luis"))
	if err == nil {
		t.Fatalf("expected error")
	}
	v := e.View()
	if v.Mode != ModeCreating {
		t.Fatalf("mode = %v, want creating", v.Mode)
	}
	if v.CreateDraft.Get("nombre") != "Luis" {
		t.Fatalf("draft lost: %v", v.CreateDraft)
	}
	if v.Notice == nil || v.Notice.Target != TargetCreate || v.Notice.Message != "Email duplicado" {
		t.Fatalf("notice = %+v", v.Notice)
	}
	if len(e.Items()) != 0 {
		t.Fatalf("failed create changed the collection")
	}
}

func TestCreateValidationSkipsNetwork(t *testing.T) {
	e, repo := newCustomerEditor(t)
	before := repo.callCount()
	d := customerDraft("Luis")
	d["email"] = "  "

	err := e.SubmitCreate(context.Background(), d)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("err = %v", err)
	}
	if repo.callCount() != before {
		t.Fatalf("validation failure reached the API")
	}
	if e.View().Mode != ModeCreating {
		t.Fatalf("mode = %v", e.View().Mode)
	}
}

func TestCreateDraftNeverCarriesID(t *testing.T) {
	e, _ := newCustomerEditor(t)
	d := customerDraft("Luis")
	d[IDField] = "forged"
	e.SubmitCreate(context.Background(), d)
	if _, ok := e.View().CreateDraft[IDField]; ok {
		t.Fatalf("create draft carries an id")
	}
}

func TestUpdateReplacesByID(t *testing.T) {
	e, _ := newCustomerEditor(t,
		entities.Customer{ID: "c1", Nombre: "Ana"},
		entities.Customer{ID: "c2", Nombre: "Beto"},
	)
	if err := e.BeginEdit("c2"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	v := e.View()
	if v.EditDraft.Get(IDField) != "c2" || v.EditDraft.Get("nombre") != "Beto" {
		t.Fatalf("edit draft = %v", v.EditDraft)
	}
	if v.EditDraft.Get("email") != "" {
		t.Fatalf("missing email should be empty, got %q", v.EditDraft.Get("email"))
	}

	if err := e.SubmitEdit(context.Background(), customerDraft("Roberto")); err != nil {
		t.Fatalf("update: %v", err)
	}
	items := e.Items()
	if len(items) != 2 || countID(items, "c2") != 1 {
		t.Fatalf("items = %+v", items)
	}
	if items[1].Nombre != "Roberto" || items[1].Email != "Roberto@correo.com" {
		t.Fatalf("updated = %+v", items[1])
	}
	if e.View().Mode != ModeIdle {
		t.Fatalf("mode after update = %v", e.View().Mode)
	}
}

func TestUpdateFailureStaysEditing(t *testing.T) {
	e, repo := newCustomerEditor(t, entities.Customer{ID: "c1", Nombre: "Ana"})
	e.BeginEdit("c1")
	repo.failErr = apperrors.NewTransportError(errors.New("connection refused"))

	if err := e.SubmitEdit(context.Background(), customerDraft("Ana María")); err == nil {
		t.Fatalf("expected error")
	}
	v := e.View()
	if v.Mode != ModeEditing || v.EditingID != "c1" {
		t.Fatalf("mode = %v editing %q", v.Mode, v.EditingID)
	}
	if v.EditDraft.Get("nombre") != "Ana María" || v.EditDraft.Get(IDField) != "c1" {
		t.Fatalf("edit draft = %v", v.EditDraft)
	}
	if e.Items()[0].Nombre != "Ana" {
		t.Fatalf("failed update changed the collection")
	}
}

func TestSingleEditAtATime(t *testing.T) {
	e, _ := newCustomerEditor(t,
		entities.Customer{ID: "c1", Nombre: "Ana"},
		entities.Customer{ID: "c2", Nombre: "Beto"},
	)
	e.BeginEdit("c1")
	e.BeginEdit("c2")

	v := e.View()
	editing := 0
	for _, r := range v.Rows {
		if r.Editing {
			editing++
			if r.ID != "c2" {
				t.Fatalf("editing row = %q", r.ID)
			}
		}
	}
	if editing != 1 {
		t.Fatalf("%d rows in edit mode", editing)
	}
	if v.EditDraft.Get("nombre") != "Beto" {
		t.Fatalf("edit draft = %v", v.EditDraft)
	}
}

func TestCancelEditIsLocal(t *testing.T) {
	e, repo := newCustomerEditor(t, entities.Customer{ID: "c1", Nombre: "Ana"})
	before := repo.callCount()
	e.BeginEdit("c1")
	e.CancelEdit()

	v := e.View()
	if v.Mode != ModeIdle || v.EditDraft != nil || v.EditingID != "" {
		t.Fatalf("cancel left %+v", v)
	}
	if repo.callCount() != before {
		t.Fatalf("cancel hit the API")
	}
	if err := e.SubmitEdit(context.Background(), customerDraft("x")); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("submit after cancel = %v", err)
	}
}

func TestDeleteRemovesByID(t *testing.T) {
	e, _ := newCustomerEditor(t,
		entities.Customer{ID: "c1", Nombre: "Ana"},
		entities.Customer{ID: "c2", Nombre: "Beto"},
	)
	e.BeginEdit("c1")
	if err := e.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if countID(e.Items(), "c1") != 0 {
		t.Fatalf("c1 still present: %+v", e.Items())
	}
	if e.View().Mode != ModeIdle {
		t.Fatalf("deleting the edited item should leave edit mode")
	}
	if err := e.Delete(context.Background(), "c1"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestDeleteFailureKeepsItem(t *testing.T) {
	e, repo := newCustomerEditor(t, entities.Customer{ID: "c1"})
	repo.failErr = apperrors.NewHTTPError(http.StatusForbidden, "")
	if err := e.Delete(context.Background(), "c1"); err == nil {
		t.Fatalf("expected error")
	}
	if countID(e.Items(), "c1") != 1 {
		t.Fatalf("item removed after failed delete")
	}
	if n := e.View().Notice; n == nil || n.Message != "403: Forbidden" {
		t.Fatalf("notice = %+v", n)
	}
}

func TestListFailureFailsOpen(t *testing.T) {
	repo := &memRepo[entities.Customer]{listErr: apperrors.NewHTTPError(http.StatusInternalServerError, "")}
	e := NewListEditor(CustomerResource(repo), quietLogger())
	e.Mount(context.Background(), testSession)

	v := e.View()
	if !v.Loaded || v.Loading {
		t.Fatalf("view stuck: loaded %v loading %v", v.Loaded, v.Loading)
	}
	if len(v.Rows) != 0 {
		t.Fatalf("rows = %+v", v.Rows)
	}
	if v.Notice == nil || v.Notice.Target != TargetList {
		t.Fatalf("notice = %+v", v.Notice)
	}
	// The view stays usable.
	if err := e.SubmitCreate(context.Background(), customerDraft("Luis")); err != nil {
		t.Fatalf("create after failed list: %v", err)
	}
}

func TestUnmountDropsInFlightResponse(t *testing.T) {
	e, repo := newCustomerEditor(t)
	repo.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- e.SubmitCreate(context.Background(), customerDraft("Luis"))
	}()

	// Wait until the submit has captured its generation.
	for e.View().Mode != ModeCreating {
		runtime.Gosched()
	}
	e.Unmount()
	close(repo.gate)

	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("err = %v, want ErrStaleResponse", err)
	}
	if len(e.Items()) != 0 {
		t.Fatalf("stale response applied: %+v", e.Items())
	}
	if e.Loaded() {
		t.Fatalf("editor still loaded after unmount")
	}
}

func TestRentalLookupsDegradeIndependently(t *testing.T) {
	rentals := &memRepo[entities.Rental]{}
	customers := &memRepo[entities.Customer]{listErr: errors.New("boom")}
	vehicles := &memRepo[entities.Vehicle]{items: []entities.Vehicle{{ID: "v1", Marca: "Toyota", Modelo: "Corolla"}}}

	e := NewListEditor(RentalResource(rentals, customers, vehicles), quietLogger())
	e.Mount(context.Background(), testSession)

	v := e.View()
	if !v.Loaded || v.Notice != nil {
		t.Fatalf("loaded %v notice %+v", v.Loaded, v.Notice)
	}
	opts := map[string][]Option{}
	for _, f := range v.Fields {
		if f.Type == FieldSelect {
			opts[f.Name] = f.Options
		}
	}
	if len(opts["clienteId"]) != 0 {
		t.Fatalf("customer options = %+v", opts["clienteId"])
	}
	if len(opts["carroId"]) != 1 || opts["carroId"][0].Value != "v1" {
		t.Fatalf("vehicle options = %+v", opts["carroId"])
	}
	if v.CreateDraft.Get("clienteId") != "u1" {
		t.Fatalf("new rental draft should default to the session user, got %v", v.CreateDraft)
	}
}

func TestRentalRowDisplay(t *testing.T) {
	var r entities.Rental
	json.Unmarshal([]byte(`{"_id":"r1","clienteId":{"_id":"64f1a2b3c4d5e6f7a8b9c0d1"},"fechaInicio":"2024-05-01","fechaFin":"2024-05-04","costo":150}`), &r)
	res := RentalResource(&memRepo[entities.Rental]{}, &memRepo[entities.Customer]{}, &memRepo[entities.Vehicle]{})
	cells := res.Row(r)
	want := []string{"b9c0d1", "Sin ID", "01/05/2024", "04/05/2024", "3 días", "$150"}
	for i := range want {
		if cells[i] != want[i] {
			t.Fatalf("cell %d = %q, want %q", i, cells[i], want[i])
		}
	}
}

func TestVehicleEditDraftDefaults(t *testing.T) {
	repo := &memRepo[entities.Vehicle]{items: []entities.Vehicle{{ID: "v1", Marca: "Ford"}}}
	e := NewListEditor(VehicleResource(repo), quietLogger())
	e.Mount(context.Background(), testSession)
	e.BeginEdit("v1")
	d := e.View().EditDraft
	if d.Get("disponible") != "true" {
		t.Fatalf("disponible = %q, want true", d.Get("disponible"))
	}
	if d.Get("modelo") != "" || d.Get("año") != "" {
		t.Fatalf("draft = %v", d)
	}
}

func TestCreateVehicleAgainstAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `[]`)
		case http.MethodPost:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["_id"] = "v1"
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(body)
		}
	}))
	defer srv.Close()

	client := repository.NewAPIClient(srv.URL, repository.WithLogger(quietLogger()))
	e := NewListEditor(VehicleResource(repository.NewVehicleRepository(client)), quietLogger())
	e.Mount(context.Background(), testSession)

	err := e.SubmitCreate(context.Background(), Draft{
		"marca": "Toyota", "modelo": "Corolla", "año": "2023", "matricula": "ABC-123", "disponible": "true",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	items := e.Items()
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	got := items[0]
	if got.ID != "v1" || got.Marca != "Toyota" || got.Modelo != "Corolla" || got.Anio != 2023 ||
		got.Matricula != "ABC-123" || !got.IsAvailable() || got.Disponible == nil {
		t.Fatalf("vehicle = %+v", got)
	}
}

func TestRentalListServerErrorLeavesEmptyView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/rentas" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	client := repository.NewAPIClient(srv.URL, repository.WithLogger(quietLogger()))
	console := NewConsole(client, quietLogger())
	e := NewListEditor(RentalResource(console.Rentals, console.Customers, console.Vehicles), quietLogger())
	e.Mount(context.Background(), testSession)

	v := e.View()
	if !v.Loaded || v.Loading || len(v.Rows) != 0 {
		t.Fatalf("loaded %v loading %v rows %d", v.Loaded, v.Loading, len(v.Rows))
	}
	if v.Notice == nil {
		t.Fatalf("expected a notice for the failed list")
	}
}

func TestRentalListKeepsRowsAroundBadRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/rentas" {
			io.WriteString(w, `[
				{"_id":"r1","clienteId":"c1","carroId":"v1","fechaInicio":"2024-05-01","fechaFin":"2024-05-03","costo":100},
				{"_id":"r2","clienteId":"c2","carroId":"v2","fechaInicio":"2024-05-01","fechaFin":"2024-05-03","costo":"N/A"}
			]`)
			return
		}
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	console := NewConsole(repository.NewAPIClient(srv.URL, repository.WithLogger(quietLogger())), quietLogger())
	e := NewListEditor(RentalResource(console.Rentals, console.Customers, console.Vehicles), quietLogger())
	e.Mount(context.Background(), testSession)

	v := e.View()
	if v.Notice != nil {
		t.Fatalf("notice = %+v", v.Notice)
	}
	if len(v.Rows) != 1 || v.Rows[0].ID != "r1" {
		t.Fatalf("rows = %+v", v.Rows)
	}
}
