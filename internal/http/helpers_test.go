package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/backend"
	"storefront/internal/http/handlers"
	"storefront/internal/photos"
	"storefront/internal/referral"
	"storefront/internal/session"
	"storefront/internal/storage"
)

const (
	product9  = `{"id":9,"title":"Wireless Headphones","price_uzs":"12500000","category_name":"Electronics","description":"Noise cancelling","is_active":true,"rating":4.5,"photos":[{"image":"media/p9.jpg"}]}`
	product10 = `{"id":10,"title":"Running Shoes","price_uzs":"4500000","category_name":"Sports","is_active":true,"photos":[]}`
)

var users = map[string]string{
	"tok-ann": `{"id":1,"username":"ann","email":"ann@example.uz","first_name":"Ann","last_name":"Lee","role":"buyer","phone":"+998901112233"}`,
	"tok-bob": `{"id":2,"username":"bob","email":"bob@example.uz","first_name":"Bob","role":"vendor"}`,
}

// fakeBackend stands in for the marketplace backend and records what it is
// sent.
type fakeBackend struct {
	srv *httptest.Server

	mu           sync.Mutex
	logins       int
	visits       []map[string]any
	visitIPs     []string
	orders       []map[string]any
	orderAuth    []string
	links        []map[string]any
	failProducts bool
	failReviews  bool
}

func (f *fakeBackend) record(r *http.Request, into *[]map[string]any) {
	var m map[string]any
	_ = json.NewDecoder(r.Body).Decode(&m)
	f.mu.Lock()
	*into = append(*into, m)
	f.mu.Unlock()
}

func (f *fakeBackend) snapshot(list *[]map[string]any) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), (*list)...)
}

func (f *fakeBackend) orderTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.orderAuth...)
}

func (f *fakeBackend) loginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *fakeBackend) setProductsDown(down bool) {
	f.mu.Lock()
	f.failProducts = down
	f.mu.Unlock()
}

func (f *fakeBackend) setReviewsDown(down bool) {
	f.mu.Lock()
	f.failReviews = down
	f.mu.Unlock()
}

func (f *fakeBackend) productsDown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failProducts
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products/featured", func(w http.ResponseWriter, r *http.Request) {
		if f.productsDown() {
			writeJSON(w, 503, `{"detail":"maintenance"}`)
			return
		}
		writeJSON(w, 200, "["+product9+"]")
	})
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		if f.productsDown() {
			writeJSON(w, 503, `{"detail":"maintenance"}`)
			return
		}
		writeJSON(w, 200, `{"count":2,"results":[`+product9+","+product10+`]}`)
	})
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "9":
			writeJSON(w, 200, product9)
		case "10":
			writeJSON(w, 200, product10)
		default:
			writeJSON(w, 404, `{"detail":"Not found."}`)
		}
	})
	mux.HandleFunc("GET /api/reviews/latest", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		down := f.failReviews
		f.mu.Unlock()
		if down {
			writeJSON(w, 500, `{"error":"db unavailable"}`)
			return
		}
		writeJSON(w, 200, `[{"id":3,"product":9,"product_title":"Wireless Headphones","user_name":"ann","user_first_name":"Ann","user_last_name":"Lee","rating":5,"comment":"Crisp sound","verified":true,"created_at":"2026-10-14T08:00:00Z"}]`)
	})
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["username"] != "ann" || in["password"] != "Secret123!" {
			writeJSON(w, 401, `{"detail":"No active account found with the given credentials"}`)
			return
		}
		writeJSON(w, 200, `{"access":"tok-ann","refresh":"r-ann","user":`+users["tok-ann"]+`}`)
	})
	mux.HandleFunc("POST /api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["username"] != "bob" {
			writeJSON(w, 400, `{"error":"A user with that username already exists."}`)
			return
		}
		writeJSON(w, 201, `{"access":"tok-bob","user":`+users["tok-bob"]+`}`)
	})
	mux.HandleFunc("/api/auth/user/", func(w http.ResponseWriter, r *http.Request) {
		u, ok := users[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		if !ok {
			writeJSON(w, 401, `{"detail":"Authentication credentials were not provided."}`)
			return
		}
		if r.Method == http.MethodPut {
			var patch map[string]any
			_ = json.Unmarshal([]byte(u), &patch)
			_ = json.NewDecoder(r.Body).Decode(&patch)
			raw, _ := json.Marshal(patch)
			writeJSON(w, 200, string(raw))
			return
		}
		writeJSON(w, 200, u)
	})
	mux.HandleFunc("POST /api/orders/create", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.orderAuth = append(f.orderAuth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		f.record(r, &f.orders)
		writeJSON(w, 201, `{"id":77,"status":"pending"}`)
	})
	mux.HandleFunc("POST /api/referral-visits/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.visitIPs = append(f.visitIPs, r.Header.Get("X-Forwarded-For"))
		f.mu.Unlock()
		f.record(r, &f.visits)
		writeJSON(w, 201, `{"ok":true}`)
	})
	mux.HandleFunc("POST /api/referral-links/create/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer tok-bob":
			f.record(r, &f.links)
			writeJSON(w, 201, `{"referral_code":"BOB9","url":"https://fubamarket.com/product/9?ref=BOB9&utm_source=referral"}`)
		case "Bearer broken":
			writeJSON(w, 400, `{}`)
		case "Bearer detail-false":
			writeJSON(w, 409, `{"detail":false}`)
		case "Bearer detail-zero":
			writeJSON(w, 422, `{"detail":0}`)
		case "Bearer detail-list":
			writeJSON(w, 400, `{"detail":["product_id is required"]}`)
		case "Bearer html":
			w.WriteHeader(502)
			_, _ = io.WriteString(w, "<html>bad gateway</html>")
		default:
			writeJSON(w, 403, `{"detail":"Only vendors can create referral links."}`)
		}
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type testEnv struct {
	app      *fiber.App
	be       *fakeBackend
	reporter *referral.Reporter
	store    storage.Storage
}

// newTestEnv builds the full app against a fake backend. store may be shared
// between envs to simulate a restart; nil means fresh memory storage.
func newTestEnv(t *testing.T, store storage.Storage, tweak ...func(*handlers.Options)) *testEnv {
	t.Helper()
	be := newFakeBackend(t)
	if store == nil {
		store = storage.NewMemory()
	}
	pics := photos.Resolver{BaseURL: "https://media.test"}
	client := backend.New(backend.Options{BaseURL: be.srv.URL, Photos: pics, Timeout: 5 * time.Second})
	rep := referral.NewReporter(client, 5*time.Second)
	o := handlers.Options{
		Backend:  client,
		Photos:   pics,
		Sessions: session.NewRegistry(store, client),
		Reporter: rep,
	}
	for _, fn := range tweak {
		fn(&o)
	}
	t.Cleanup(rep.Wait)
	return &testEnv{app: handlers.NewApp(o), be: be, reporter: rep, store: store}
}

// browser keeps cookies between requests and echoes the CSRF cookie in the
// header the way the storefront's scripts do.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	return &browser{t: t, app: app, cookies: map[string]string{}}
}

// start loads the session endpoint once to pick up the sid and CSRF cookies.
func (b *browser) start() *browser {
	resp := b.do("GET", "/session", nil)
	if resp.StatusCode != http.StatusOK {
		b.t.Fatalf("GET /session: %d", resp.StatusCode)
	}
	if b.cookies["sid"] == "" || b.cookies["csrf_"] == "" {
		b.t.Fatalf("missing sid or csrf cookie: %v", b.cookies)
	}
	return b
}

func (b *browser) do(method, target string, body any, header ...string) *http.Response {
	b.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			enc, err := json.Marshal(body)
			if err != nil {
				b.t.Fatal(err)
			}
			raw = string(enc)
		}
		rd = bytes.NewReader([]byte(raw))
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	if tok := b.cookies["csrf_"]; tok != "" {
		req.Header.Set("X-Csrf-Token", tok)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, target, err)
	}
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return m
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("want %d, got %d body=%s", want, resp.StatusCode, body)
	}
}
