package service

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/db/dbtest"
	"github.com/sotfmods/api/internal/repository"
)

type fakeResetMailer struct {
	sent  map[string]string
	fails bool
}

func (m *fakeResetMailer) SendPasswordResetEmail(email, token, name string) error {
	if m.fails {
		return errors.New("smtp down")
	}
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[email] = token
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *fakeResetMailer, *sqlx.DB) {
	t.Helper()
	conn := dbtest.New(t)
	mailer := &fakeResetMailer{}
	auth := NewAuthService(
		repository.NewUserRepository(conn),
		repository.NewTokenRepository(conn),
		mailer,
		"test-secret",
		time.Hour,
		time.Hour,
	)
	return auth, mailer, conn
}

func TestAuthServiceRegister(t *testing.T) {
	auth, _, _ := newAuthService(t)

	_, err := auth.Register("ab", "not-an-email", "short")
	if got := fieldNames(err); !reflect.DeepEqual(got, []string{"name", "email", "password"}) {
		t.Fatalf("Register() fields = %v", got)
	}

	user, err := auth.Register("Hazel Puffton", "Hazel@Example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Slug != "hazel-puffton" || user.Email != "hazel@example.com" {
		t.Errorf("user = %+v", user)
	}

	other, err := auth.Register("Hazel Puffton", "other@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if other.Slug != "hazel-puffton-2" {
		t.Errorf("second slug = %q, want hazel-puffton-2", other.Slug)
	}

	_, err = auth.Register("Someone Else", "hazel@example.com", "hunter2hunter2")
	if !hasField(err, "email") {
		t.Errorf("duplicate email error = %v", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	auth, _, conn := newAuthService(t)
	if _, err := auth.Register("Hazel", "hazel@example.com", "hunter2hunter2"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     []string
	}{
		{"missing fields", "", "", []string{"email", "password"}},
		{"unknown email", "nobody@example.com", "hunter2hunter2", []string{"email"}},
		{"wrong password", "hazel@example.com", "wrongpassword", []string{"password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Login(tt.email, tt.password)
			if got := fieldNames(err); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Login() fields = %v, want %v", got, tt.want)
			}
		})
	}

	session, err := auth.Login(" HAZEL@example.com ", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	user, err := auth.ResolveUser(session.Token)
	if err != nil || user == nil || user.ID != session.User.ID {
		t.Fatalf("ResolveUser() = %v, %v", user, err)
	}

	if user, err := auth.ResolveUser("not-a-jwt"); user != nil || err != nil {
		t.Errorf("ResolveUser(garbage) = %v, %v, want nil, nil", user, err)
	}

	_, err = conn.Exec(`UPDATE tokens SET expires_at = $1 WHERE token = $2`, time.Now().UTC().Add(-time.Minute), session.Token)
	if err != nil {
		t.Fatal(err)
	}
	if user, err := auth.ResolveUser(session.Token); user != nil || err != nil {
		t.Errorf("ResolveUser(expired) = %v, %v, want nil, nil", user, err)
	}

	second, err := auth.Login("hazel@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if err := auth.Logout(second.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if user, _ := auth.ResolveUser(second.Token); user != nil {
		t.Error("token should not resolve after logout")
	}
}

func TestAuthServicePasswordReset(t *testing.T) {
	auth, mailer, conn := newAuthService(t)
	if _, err := auth.Register("Hazel", "hazel@example.com", "hunter2hunter2"); err != nil {
		t.Fatal(err)
	}
	session, err := auth.Login("hazel@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}

	if err := auth.ForgotPassword("nobody@example.com"); err != nil {
		t.Errorf("ForgotPassword(unknown) error = %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("no email should go to an unknown address")
	}
	if err := auth.ForgotPassword("nope"); !hasField(err, "email") {
		t.Errorf("ForgotPassword(invalid) error = %v", err)
	}

	if err := auth.ForgotPassword("hazel@example.com"); err != nil {
		t.Fatal(err)
	}
	token := mailer.sent["hazel@example.com"]
	if token == "" {
		t.Fatal("reset email not sent")
	}

	if err := auth.ResetPassword("unknown", "kelvinrocks1", "kelvinrocks1"); !hasField(err, "token") {
		t.Errorf("ResetPassword(unknown) error = %v", err)
	}
	err = auth.ResetPassword(token, "kelvinrocks1", "kelvinrocks2")
	if got := fieldNames(err); !reflect.DeepEqual(got, []string{"confirm_password"}) {
		t.Errorf("ResetPassword(mismatch) fields = %v", got)
	}

	if err := auth.ResetPassword(token, "kelvinrocks1", "kelvinrocks1"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if user, _ := auth.ResolveUser(session.Token); user != nil {
		t.Error("sessions should be revoked by a password reset")
	}
	if _, err := auth.Login("hazel@example.com", "hunter2hunter2"); !hasField(err, "password") {
		t.Errorf("old password should fail, got %v", err)
	}
	if _, err := auth.Login("hazel@example.com", "kelvinrocks1"); err != nil {
		t.Errorf("new password should work, got %v", err)
	}

	t.Run("expired token", func(t *testing.T) {
		if err := auth.ForgotPassword("hazel@example.com"); err != nil {
			t.Fatal(err)
		}
		token := mailer.sent["hazel@example.com"]
		_, err := conn.Exec(`UPDATE tokens SET expires_at = $1 WHERE token = $2`, time.Now().UTC().Add(-time.Minute), token)
		if err != nil {
			t.Fatal(err)
		}
		err = auth.ResetPassword(token, "kelvinrocks2", "kelvinrocks2")
		if fields := apperrMessages(err); len(fields) != 1 || fields[0] != "Token expired." {
			t.Errorf("ResetPassword(expired) = %v", fields)
		}
		if err := auth.ResetPassword(token, "kelvinrocks2", "kelvinrocks2"); !hasField(err, "token") {
			t.Errorf("expired token should be gone, got %v", err)
		}
	})

	t.Run("mailer failure is not reported", func(t *testing.T) {
		mailer.fails = true
		if err := auth.ForgotPassword("hazel@example.com"); err != nil {
			t.Errorf("ForgotPassword() error = %v", err)
		}
	})
}
