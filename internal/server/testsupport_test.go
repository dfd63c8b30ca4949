package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopapp/internal/auth"
	"shopapp/internal/config"
	"shopapp/internal/store"
)

type fakeUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]*auth.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*auth.User)}
}

func (f *fakeUsers) Create(_ context.Context, user *auth.User) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, auth.ErrEmailTaken
		}
		if u.Name == user.Name {
			return nil, auth.ErrNameTaken
		}
	}
	stored := *user
	if stored.ID == "" {
		f.seq++
		stored.ID = "user-" + strconv.Itoa(f.seq)
	}
	if stored.Role == "" {
		stored.Role = auth.RoleUser
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUsers) FindByName(_ context.Context, name string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Name == name {
			out := *u
			return &out, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUsers) SaveOTP(_ context.Context, userID, otpHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.OTP = &auth.PendingOTP{Hash: otpHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeUsers) ConsumeOTP(_ context.Context, userID, otpHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	if u.IsVerified || u.OTP == nil || u.OTP.Hash != otpHash {
		return false, nil
	}
	u.IsVerified = true
	u.OTP = nil
	return true, nil
}

func (f *fakeUsers) EnsureAdmin(ctx context.Context, admin *auth.User) (bool, error) {
	f.mu.Lock()
	for _, u := range f.users {
		if u.Role == auth.RoleAdmin {
			f.mu.Unlock()
			return false, nil
		}
	}
	f.mu.Unlock()
	admin.Role = auth.RoleAdmin
	admin.IsVerified = true
	if _, err := f.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

var codePattern = regexp.MustCompile(`[0-9]{6}`)

// lastCode pulls the plaintext OTP out of the most recent delivery.
func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	code := codePattern.FindString(f.sent[len(f.sent)-1].Body)
	if code == "" {
		t.Fatal("no code found in mail body")
	}
	return code
}

type fakeCategories struct {
	mu         sync.Mutex
	seq        int
	categories map[string]*store.Category
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{categories: make(map[string]*store.Category)}
}

func (f *fakeCategories) List(_ context.Context) ([]store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCategories) FindByID(_ context.Context, id string) (*store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeCategories) Create(_ context.Context, c *store.Category) (*store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.categories {
		if existing.Name == c.Name {
			return nil, store.ErrConflict
		}
	}
	stored := *c
	if stored.ID == "" {
		f.seq++
		stored.ID = "cat-" + strconv.Itoa(f.seq)
	}
	f.categories[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeCategories) Update(_ context.Context, c *store.Category) (*store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.ID]; !ok {
		return nil, store.ErrNotFound
	}
	stored := *c
	f.categories[c.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeCategories) Delete(_ context.Context, id string) (*store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(f.categories, id)
	out := *c
	return &out, nil
}

type fakeProducts struct {
	mu       sync.Mutex
	seq      int
	products map[string]*store.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: make(map[string]*store.Product)}
}

func (f *fakeProducts) List(_ context.Context) ([]store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProducts) FindByID(_ context.Context, id string) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeProducts) FindByName(_ context.Context, name string) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Name == name {
			out := *p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeProducts) Create(_ context.Context, p *store.Product) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.products {
		if existing.Name == p.Name {
			return nil, store.ErrConflict
		}
	}
	stored := *p
	if stored.ID == "" {
		f.seq++
		stored.ID = "prod-" + strconv.Itoa(f.seq)
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.products[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeProducts) Update(_ context.Context, p *store.Product) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return nil, store.ErrNotFound
	}
	stored := *p
	stored.UpdatedAt = time.Now()
	f.products[p.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

type testEnv struct {
	server     *Server
	handler    http.Handler
	users      *fakeUsers
	mailer     *fakeMailer
	products   *fakeProducts
	categories *fakeCategories
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		APIBase:    "/api/v1",
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
	}
	users := newFakeUsers()
	mailer := &fakeMailer{}
	products := newFakeProducts()
	categories := newFakeCategories()

	srv := NewServer(cfg, users, auth.NewBcryptHasher(bcrypt.MinCost),
		auth.NewOTPService(users, time.Minute), mailer, products, categories, nil)

	return &testEnv{
		server:     srv,
		handler:    srv.Router(),
		users:      users,
		mailer:     mailer,
		products:   products,
		categories: categories,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func sessionCookie(t *testing.T, e *testEnv, userID string) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(e.server.Config.JWTSecret), time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return &http.Cookie{Name: "jwt", Value: token}
}

// registerAndVerify walks a user through the full registration flow and
// returns their id and session cookie.
func registerAndVerify(t *testing.T, e *testEnv, name, email, password string) (string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": name, "email": email, "password": password, "confirmPassword": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", rec.Code, rec.Body.String())
	}
	userID, _ := decodeBody(t, rec)["userId"].(string)
	if userID == "" {
		t.Fatal("register returned no userId")
	}

	rec = e.do(t, http.MethodPost, "/api/v1/auth/register/verify", map[string]string{
		"userId": userID, "otp": e.mailer.lastCode(t),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d body = %s", rec.Code, rec.Body.String())
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == "jwt" && c.Value != "" {
			return userID, c
		}
	}
	t.Fatal("verify set no session cookie")
	return "", nil
}
