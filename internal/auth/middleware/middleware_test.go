package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthService("k", WithAdmin("root", string(hash)), WithDevLogins(true))
	h := LoginHandler(a)

	cases := []struct {
		body string
		code int
	}{
		{`{"username":"root","password":"s3cret"}`, http.StatusOK},
		{`{"username":"root","password":"root"}`, http.StatusUnauthorized},
		{`{"username":"ana","password":"ana","role":"student"}`, http.StatusOK},
		{`{"username":"ana","password":"ana","role":"admin"}`, http.StatusUnauthorized},
		{`{"username":"ana","password":"x","role":"teacher"}`, http.StatusUnauthorized},
		{`{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
		if rec.Code != tc.code {
			t.Errorf("%s: code = %d, want %d", tc.body, rec.Code, tc.code)
		}
	}
}

func TestLogin_DevLoginsOff(t *testing.T) {
	h := LoginHandler(NewAuthService("k"))
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ana","password":"ana","role":"student"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("k")
	tok, err := a.IssueJWT("ana", "student")
	if err != nil {
		t.Fatal(err)
	}
	var (
		sub  string
		role rbac.Role
		p    Principal
	)
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, role = SubjectFromContext(r.Context()), rbac.RoleFromContext(r.Context())
		p, _ = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sub != "ana" || role != rbac.RoleStudent {
		t.Fatalf("code=%d sub=%q role=%q", rec.Code, sub, role)
	}
	if p != (Principal{Subject: "ana", Role: rbac.RoleStudent}) {
		t.Fatalf("principal = %+v", p)
	}

	other, _ := NewAuthService("other").IssueJWT("eve", "admin")
	for _, hdr := range []string{"", "Bearer " + other, "Token " + tok} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", hdr)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: code = %d", hdr, rec.Code)
		}
	}
}
