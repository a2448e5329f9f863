package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel})
	os.Exit(m.Run())
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.json")
	s, err := NewService(path, "")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s, path
}

func TestRegisterLoginValidate(t *testing.T) {
	s, _ := newTestService(t)

	if ok, msg := s.Register("alice@example.com", "s3cret"); !ok {
		t.Fatalf("register failed: %s", msg)
	}

	session, msg := s.Login("alice@example.com", "s3cret")
	if session == nil {
		t.Fatalf("login failed: %s", msg)
	}
	if session.Token == "" || session.UserID == "" {
		t.Fatalf("incomplete session: %+v", session)
	}

	userID, valid := s.ValidateSession(session.Token)
	if !valid || userID != session.UserID {
		t.Fatalf("ValidateSession = %q/%v, want %q/true", userID, valid, session.UserID)
	}

	if _, valid := s.ValidateSession("bogus-token"); valid {
		t.Fatal("bogus token validated")
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	s, _ := newTestService(t)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "pw"},
		{"empty password", "a@b.com", ""},
		{"no at sign", "not-an-email", "pw"},
		{"no tld", "a@b", "pw"},
		{"spaces", "a b@c.com", "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ok, _ := s.Register(tc.email, tc.password); ok {
				t.Fatalf("registration accepted for %q/%q", tc.email, tc.password)
			}
		})
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	s, _ := newTestService(t)

	if ok, _ := s.Register("dup@example.com", "pw1"); !ok {
		t.Fatal("first registration failed")
	}
	if ok, _ := s.Register("dup@example.com", "pw2"); ok {
		t.Fatal("duplicate registration accepted")
	}
	// The admin account is never claimable.
	if ok, _ := s.Register(AdminEmail, "pw"); ok {
		t.Fatal("admin email registration accepted")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s, _ := newTestService(t)
	s.Register("alice@example.com", "right")

	if session, _ := s.Login("alice@example.com", "wrong"); session != nil {
		t.Fatal("login succeeded with a wrong password")
	}
	if session, _ := s.Login("nobody@example.com", "right"); session != nil {
		t.Fatal("login succeeded for an unknown user")
	}
}

func TestAdminAccountMapsToAdminID(t *testing.T) {
	s, _ := newTestService(t)

	session, msg := s.Login(AdminEmail, DefaultAdminPassword)
	if session == nil {
		t.Fatalf("admin login failed: %s", msg)
	}
	if session.UserID != types.AdminUserID {
		t.Fatalf("admin user id = %q, want %q", session.UserID, types.AdminUserID)
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	s, err := NewService(path, "")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	s.Register("alice@example.com", "pw")
	session, _ := s.Login("alice@example.com", "pw")
	if session == nil {
		t.Fatal("login failed")
	}

	reloaded, err := NewService(path, "")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	// Both the account and the issued session survive.
	if again, msg := reloaded.Login("alice@example.com", "pw"); again == nil {
		t.Fatalf("login after reload failed: %s", msg)
	}
	userID, valid := reloaded.ValidateSession(session.Token)
	if !valid || userID != session.UserID {
		t.Fatalf("session lost across restart: %q/%v", userID, valid)
	}
}
