package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/document-tracking/internal/config"
	"github.com/iliyamo/document-tracking/internal/model"
	"github.com/iliyamo/document-tracking/internal/repository"
	"github.com/iliyamo/document-tracking/internal/utils"
)

type fakeAccount struct {
	model.Account
	tokenHash string
	expiry    time.Time
}

// fakeAccounts mimics the two credential tables with their unique keys.
type fakeAccounts struct {
	tables map[model.AccountKind][]*fakeAccount
	err    error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{tables: map[model.AccountKind][]*fakeAccount{}}
}

func (f *fakeAccounts) Create(_ context.Context, a model.NewAccount) error {
	if f.err != nil {
		return f.err
	}
	kind := model.KindOf(a.Role)
	for _, row := range f.tables[kind] {
		if row.Username == a.Username {
			return repository.ErrUsernameTaken
		}
		if row.Email == a.Email {
			return repository.ErrEmailTaken
		}
	}
	f.tables[kind] = append(f.tables[kind], &fakeAccount{Account: model.Account{
		ID:           uint64(len(f.tables[kind]) + 1),
		Username:     a.Username,
		Email:        a.Email,
		Contact:      a.Contact,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
	}})
	return nil
}

func (f *fakeAccounts) find(kind model.AccountKind, match func(*fakeAccount) bool) *fakeAccount {
	for _, row := range f.tables[kind] {
		if match(row) {
			return row
		}
	}
	return nil
}

func (f *fakeAccounts) GetByUsername(_ context.Context, kind model.AccountKind, username string) (model.Account, error) {
	if f.err != nil {
		return model.Account{}, f.err
	}
	if row := f.find(kind, func(a *fakeAccount) bool { return a.Username == username }); row != nil {
		return row.Account, nil
	}
	return model.Account{}, sql.ErrNoRows
}

func (f *fakeAccounts) GetByEmail(_ context.Context, kind model.AccountKind, email string) (model.Account, error) {
	if f.err != nil {
		return model.Account{}, f.err
	}
	if row := f.find(kind, func(a *fakeAccount) bool { return a.Email == email }); row != nil {
		return row.Account, nil
	}
	return model.Account{}, sql.ErrNoRows
}

func (f *fakeAccounts) StoreResetToken(_ context.Context, kind model.AccountKind, email, tokenHash string, expiry time.Time) error {
	row := f.find(kind, func(a *fakeAccount) bool { return a.Email == email })
	if row == nil {
		return sql.ErrNoRows
	}
	row.tokenHash, row.expiry = tokenHash, expiry
	return nil
}

func (f *fakeAccounts) ResetPassword(_ context.Context, kind model.AccountKind, tokenHash, passwordHash string, now time.Time) error {
	row := f.find(kind, func(a *fakeAccount) bool { return a.tokenHash != "" && a.tokenHash == tokenHash && a.expiry.After(now) })
	if row == nil {
		return sql.ErrNoRows
	}
	row.PasswordHash = passwordHash
	row.tokenHash, row.expiry = "", time.Time{}
	return nil
}

type fakeMailer struct {
	to, link string
	err      error
}

func (m *fakeMailer) SendPasswordResetEmail(to, link string) error {
	m.to, m.link = to, link
	return m.err
}

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestAuth() (*AuthHandler, *fakeAccounts, *fakeMailer) {
	accounts, mailer := newFakeAccounts(), &fakeMailer{}
	h := NewAuthHandler(config.Config{
		BcryptCost:    4,
		JWTSecret:     "test-secret",
		AccessTTLMin:  60,
		FrontendURL:   "http://localhost:3000",
		ResetTokenTTL: 15 * time.Minute,
	}, accounts, mailer)
	h.Now = func() time.Time { return testNow }
	return h, accounts, mailer
}

// call runs h against a JSON request.  params are name/value pairs for path
// parameters.
func call(t *testing.T, h echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names, values = append(names, params[i]), append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := h(c); err != nil {
		t.Fatalf("%s %s: handler returned %v", method, target, err)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

const aliceJSON = `{"username":"alice","email":"alice@x.com","contact":"9999999999","password":"pw123","role":"citizen"}`

func TestRegister(t *testing.T) {
	h, _, _ := newTestAuth()

	rec := call(t, h.Register, http.MethodPost, "/auth/register", aliceJSON)
	if rec.Code != http.StatusCreated || decode(t, rec)["message"] != "Citizen registered successfully!" {
		t.Fatalf("register = %d %s", rec.Code, rec.Body)
	}

	rec = call(t, h.Register, http.MethodPost, "/auth/register", aliceJSON)
	if rec.Code != http.StatusConflict || decode(t, rec)["error"] != "Username already taken." {
		t.Errorf("duplicate username = %d %s", rec.Code, rec.Body)
	}

	rec = call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"alice2","email":"alice@x.com","contact":"9999999999","password":"pw123","role":"citizen"}`)
	if rec.Code != http.StatusConflict || decode(t, rec)["error"] != "Email address already registered." {
		t.Errorf("duplicate email = %d %s", rec.Code, rec.Body)
	}

	// The same username is free in the admins table.
	rec = call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@x.com","contact":"9999999999","password":"pw123","role":"admin"}`)
	if rec.Code != http.StatusCreated || decode(t, rec)["message"] != "Admin registered successfully!" {
		t.Errorf("admin register = %d %s", rec.Code, rec.Body)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := newTestAuth()
	cases := map[string]string{
		"missing contact":       `{"username":"u","email":"u@x.com","password":"pw123","role":"citizen"}`,
		"unknown role":          `{"username":"u","email":"u@x.com","contact":"9999999999","password":"pw123","role":"user"}`,
		"organization w/o name": `{"username":"u","email":"u@x.com","contact":"9999999999","password":"pw123","role":"organization"}`,
		"bad email":             `{"username":"u","email":"u@x","contact":"9999999999","password":"pw123","role":"citizen"}`,
		"short contact":         `{"username":"u","email":"u@x.com","contact":"12345","password":"pw123","role":"citizen"}`,
		"73-byte password":      `{"username":"u","email":"u@x.com","contact":"9999999999","password":"` + strings.Repeat("p", 73) + `","role":"citizen"}`,
	}
	for name, body := range cases {
		if rec := call(t, h.Register, http.MethodPost, "/auth/register", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", name, rec.Code)
		}
	}

	rec := call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"mof","email":"mof@gov.example","contact":"0123456789","password":"pw123","role":"Organization","officeName":"Ministry"}`)
	if rec.Code != http.StatusCreated || decode(t, rec)["message"] != "Organization registered successfully!" {
		t.Errorf("organization register = %d %s", rec.Code, rec.Body)
	}
}

func TestRegisterAcceptsMaximumPasswordLength(t *testing.T) {
	h, _, _ := newTestAuth()
	body := `{"username":"u","email":"u@x.com","contact":"9999999999","password":"` + strings.Repeat("p", maxPasswordLen) + `","role":"citizen"}`
	if rec := call(t, h.Register, http.MethodPost, "/auth/register", body); rec.Code != http.StatusCreated {
		t.Errorf("72-byte password = %d %s", rec.Code, rec.Body)
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	h, accounts, _ := newTestAuth()
	accounts.err = errors.New("connection refused")
	rec := call(t, h.Register, http.MethodPost, "/auth/register", aliceJSON)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "refused") {
		t.Errorf("store failure = %d %s", rec.Code, rec.Body)
	}
}

func TestLogin(t *testing.T) {
	h, _, _ := newTestAuth()
	call(t, h.Register, http.MethodPost, "/auth/register", aliceJSON)

	rec := call(t, h.Login, http.MethodPost, "/auth/login", `{"username":"alice","password":"pw123","role":"citizen"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s", rec.Code, rec.Body)
	}
	var resp struct {
		Message string `json:"message"`
		User    struct {
			Username    string  `json:"username"`
			Email       string  `json:"email"`
			Designation *string `json:"designation"`
			Role        string  `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.User.Role != "citizen" || resp.User.Email != "alice@x.com" || resp.User.Designation != nil {
		t.Errorf("user = %+v", resp.User)
	}
	claims, err := utils.ParseAccessToken("test-secret", resp.Token, testNow)
	if err != nil || claims.Role != "citizen" || claims.Subject != "alice" {
		t.Errorf("token claims = %+v, %v", claims, err)
	}

	unknown := call(t, h.Login, http.MethodPost, "/auth/login", `{"username":"bob","password":"pw123","role":"citizen"}`)
	wrong := call(t, h.Login, http.MethodPost, "/auth/login", `{"username":"alice","password":"nope","role":"citizen"}`)
	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Errorf("codes = %d / %d, want 401", unknown.Code, wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Errorf("bodies differ: %q vs %q", unknown.Body, wrong.Body)
	}

	// alice is not an admin, so the admins table does not know her.
	if rec := call(t, h.Login, http.MethodPost, "/auth/login", `{"username":"alice","password":"pw123","role":"admin"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("login as admin = %d", rec.Code)
	}
	if rec := call(t, h.Login, http.MethodPost, "/auth/login", `{"username":"alice","password":"pw123"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("login without role = %d", rec.Code)
	}
}

func TestForgotPassword(t *testing.T) {
	h, accounts, mailer := newTestAuth()
	call(t, h.Register, http.MethodPost, "/auth/register", aliceJSON)

	rec := call(t, h.ForgotPassword, http.MethodPost, "/auth/forgot-password", `{"email":"nobody@x.com","role":"user"}`)
	if rec.Code != http.StatusNotFound || decode(t, rec)["error"] != "User with role 'user' not found." {
		t.Errorf("unknown email = %d %s", rec.Code, rec.Body)
	}

	rec = call(t, h.ForgotPassword, http.MethodPost, "/auth/forgot-password", `{"email":"alice@x.com","role":"user"}`)
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "Reset link sent to your email" {
		t.Fatalf("forgot = %d %s", rec.Code, rec.Body)
	}
	if mailer.to != "alice@x.com" || !strings.HasPrefix(mailer.link, "http://localhost:3000/reset-password/") || !strings.HasSuffix(mailer.link, "?role=user") {
		t.Errorf("mail to %q link %q", mailer.to, mailer.link)
	}
	raw := resetTokenFrom(t, mailer.link)
	if len(raw) != 2*utils.ResetTokenBytes {
		t.Errorf("token %q has %d chars", raw, len(raw))
	}
	row := accounts.tables[model.KindUser][0]
	if row.tokenHash != utils.HashToken(raw) || !row.expiry.Equal(testNow.Add(15*time.Minute)) {
		t.Errorf("stored token %q expiry %v", row.tokenHash, row.expiry)
	}

	mailer.err = errors.New("smtp down")
	rec = call(t, h.ForgotPassword, http.MethodPost, "/auth/forgot-password", `{"email":"alice@x.com","role":"user"}`)
	if rec.Code != http.StatusInternalServerError || decode(t, rec)["error"] != "Server error while sending reset email." {
		t.Errorf("mail failure = %d %s", rec.Code, rec.Body)
	}
}

func resetTokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimPrefix(u.Path, "/reset-password/")
}

func TestResetPasswordOnce(t *testing.T) {
	h, _, mailer := newTestAuth()
	call(t, h.Register, http.MethodPost, "/auth/register", aliceJSON)
	call(t, h.ForgotPassword, http.MethodPost, "/auth/forgot-password", `{"email":"alice@x.com","role":"citizen"}`)
	token := resetTokenFrom(t, mailer.link)

	if rec := call(t, h.ResetPassword, http.MethodPost, "/", `{"password":"12345","role":"citizen"}`, "token", token); rec.Code != http.StatusBadRequest {
		t.Errorf("short password = %d", rec.Code)
	}
	if rec := call(t, h.ResetPassword, http.MethodPost, "/", `{"password":"newpass1"}`, "token", token); rec.Code != http.StatusBadRequest {
		t.Errorf("missing role = %d", rec.Code)
	}
	rec := call(t, h.ResetPassword, http.MethodPost, "/", `{"password":"`+strings.Repeat("p", 80)+`","role":"citizen"}`, "token", token)
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != msgPasswordTooLong {
		t.Errorf("80-byte password = %d %s", rec.Code, rec.Body)
	}

	rec = call(t, h.ResetPassword, http.MethodPost, "/", `{"password":"newpass1","role":"citizen"}`, "token", token)
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "Password has been updated successfully." {
		t.Fatalf("reset = %d %s", rec.Code, rec.Body)
	}
	rec = call(t, h.ResetPassword, http.MethodPost, "/", `{"password":"another1","role":"citizen"}`, "token", token)
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "Invalid or expired token. Please try again." {
		t.Errorf("second reset = %d %s", rec.Code, rec.Body)
	}

	if rec := call(t, h.Login, http.MethodPost, "/auth/login", `{"username":"alice","password":"newpass1","role":"citizen"}`); rec.Code != http.StatusOK {
		t.Errorf("login with new password = %d", rec.Code)
	}
}

func TestResetPasswordExpired(t *testing.T) {
	h, _, mailer := newTestAuth()
	call(t, h.Register, http.MethodPost, "/auth/register", aliceJSON)
	call(t, h.ForgotPassword, http.MethodPost, "/auth/forgot-password", `{"email":"alice@x.com","role":"citizen"}`)
	token := resetTokenFrom(t, mailer.link)

	h.Now = func() time.Time { return testNow.Add(16 * time.Minute) }
	if rec := call(t, h.ResetPassword, http.MethodPost, "/", `{"password":"newpass1","role":"citizen"}`, "token", token); rec.Code != http.StatusBadRequest {
		t.Errorf("expired token = %d, want 400", rec.Code)
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/nope", nil), rec)
	ErrorHandler(echo.ErrNotFound, c)
	if rec.Code != http.StatusNotFound || decode(t, rec)["error"] != "Not Found" {
		t.Errorf("not found = %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(errors.New("dial tcp: refused"), c)
	if rec.Code != http.StatusInternalServerError || decode(t, rec)["error"] != msgServerError {
		t.Errorf("plain error = %d %s", rec.Code, rec.Body)
	}
}
