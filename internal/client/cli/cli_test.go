package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/loginauth/internal/client/api"
	"github.com/iudanet/loginauth/internal/client/auth"
	"github.com/iudanet/loginauth/internal/client/iocli"
	"github.com/iudanet/loginauth/internal/client/storage"
	"github.com/iudanet/loginauth/internal/validation"
	pkgapi "github.com/iudanet/loginauth/pkg/api"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestCli собирает Cli с вводом из строки и выводом в буфер
func newTestCli(input string, svc auth.Service) (*Cli, *bytes.Buffer) {
	var out bytes.Buffer
	c := New(iocli.NewStdioFrom(strings.NewReader(input), &out), svc)
	c.now = func() time.Time { return testNow }
	return c, &out
}

func TestGetPassword_FromEnvVar(t *testing.T) {
	t.Setenv(PasswordEnvVar, "env_Passw0rd")
	c, _ := newTestCli("", &auth.ServiceMock{})

	password, err := c.getPassword(Passwords{FromArgs: "args_Passw0rd"}, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "env_Passw0rd", password)
}

func TestGetPassword_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password.txt")
	require.NoError(t, os.WriteFile(path, []byte("file_Passw0rd\n"), 0o600))
	c, _ := newTestCli("", &auth.ServiceMock{})

	password, err := c.getPassword(Passwords{FromFile: path, FromArgs: "args_Passw0rd"}, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "file_Passw0rd", password)
}

func TestGetPassword_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	c, _ := newTestCli("", &auth.ServiceMock{})

	_, err := c.getPassword(Passwords{FromFile: path}, "Password: ")
	assert.ErrorContains(t, err, "password file is empty")
}

func TestGetPassword_MissingFile(t *testing.T) {
	c, _ := newTestCli("", &auth.ServiceMock{})

	_, err := c.getPassword(Passwords{FromFile: "/nonexistent/password"}, "Password: ")
	assert.ErrorContains(t, err, "failed to read password file")
}

func TestGetPassword_FromArgs(t *testing.T) {
	c, _ := newTestCli("", &auth.ServiceMock{})

	password, err := c.getPassword(Passwords{FromArgs: "args_Passw0rd"}, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "args_Passw0rd", password)
}

func TestGetPassword_Prompt(t *testing.T) {
	mockIO := &iocli.IOMock{
		ReadPasswordFunc: func(prompt string) (string, error) {
			return "typed_Passw0rd", nil
		},
	}
	c := New(mockIO, &auth.ServiceMock{})

	password, err := c.getPassword(Passwords{}, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "typed_Passw0rd", password)
	require.Len(t, mockIO.ReadPasswordCalls(), 1)
	assert.Equal(t, "Password: ", mockIO.ReadPasswordCalls()[0].Prompt)
}

func TestGetPassword_PromptEmpty(t *testing.T) {
	mockIO := &iocli.IOMock{
		ReadPasswordFunc: func(string) (string, error) { return "", nil },
	}
	c := New(mockIO, &auth.ServiceMock{})

	_, err := c.getPassword(Passwords{}, "Password: ")
	assert.ErrorContains(t, err, "password cannot be empty")
}

func TestRunRegister(t *testing.T) {
	svc := &auth.ServiceMock{
		RegisterFunc: func(_ context.Context, input auth.RegisterInput) (string, error) {
			return "User registered successfully", nil
		},
	}
	c, out := newTestCli("alice@example.com\nPassw0rd\nPassw0rd\n", svc)

	err := c.RunRegister(context.Background(), RegisterOptions{FirstName: "Alice"})
	require.NoError(t, err)

	require.Len(t, svc.RegisterCalls(), 1)
	input := svc.RegisterCalls()[0].Input
	assert.Equal(t, "alice@example.com", input.Email)
	assert.Equal(t, "Passw0rd", input.Password)
	assert.Equal(t, "Alice", input.FirstName)
	assert.Contains(t, out.String(), "User registered successfully")
}

func TestRunRegister_PasswordMismatch(t *testing.T) {
	svc := &auth.ServiceMock{}
	c, _ := newTestCli("alice@example.com\nPassw0rd\nOther1\n", svc)

	err := c.RunRegister(context.Background(), RegisterOptions{})
	assert.ErrorContains(t, err, "passwords do not match")
	assert.Empty(t, svc.RegisterCalls())
}

func TestRunRegister_NoConfirmForArgs(t *testing.T) {
	svc := &auth.ServiceMock{
		RegisterFunc: func(context.Context, auth.RegisterInput) (string, error) {
			return "User registered successfully", nil
		},
	}
	c, _ := newTestCli("", svc)

	err := c.RunRegister(context.Background(), RegisterOptions{
		Email:     "alice@example.com",
		Passwords: Passwords{FromArgs: "Passw0rd"},
	})
	require.NoError(t, err)
	assert.Len(t, svc.RegisterCalls(), 1)
}

func TestRunRegister_PrintsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "local validation",
			err: &auth.ValidationError{Violations: []validation.Violation{
				{Code: validation.CodePasswordTooShort, Description: "Passwords must be at least 6 characters."},
			}},
			want: "[PasswordTooShort] Passwords must be at least 6 characters.",
		},
		{
			name: "server identity errors",
			err: &api.Error{
				StatusCode: http.StatusBadRequest,
				Identity:   []pkgapi.IdentityError{{Code: "DuplicateEmail", Description: "Email 'alice@example.com' is already taken."}},
			},
			want: "[DuplicateEmail] Email 'alice@example.com' is already taken.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &auth.ServiceMock{
				RegisterFunc: func(context.Context, auth.RegisterInput) (string, error) {
					return "", tt.err
				},
			}
			c, out := newTestCli("", svc)

			err := c.RunRegister(context.Background(), RegisterOptions{
				Email:     "alice@example.com",
				Passwords: Passwords{FromArgs: "Passw0rd"},
			})
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestRunLogin(t *testing.T) {
	exp := testNow.Add(3 * time.Hour)
	svc := &auth.ServiceMock{
		LoginFunc: func(_ context.Context, email, password string) (*storage.AuthData, error) {
			return &storage.AuthData{Email: email, Token: "tok", ExpiresAt: exp}, nil
		},
	}
	c, out := newTestCli("alice@example.com\nPassw0rd\n", svc)

	require.NoError(t, c.RunLogin(context.Background(), "", Passwords{}))

	require.Len(t, svc.LoginCalls(), 1)
	assert.Equal(t, "alice@example.com", svc.LoginCalls()[0].Email)
	assert.Equal(t, "Passw0rd", svc.LoginCalls()[0].Password)
	assert.Contains(t, out.String(), "Login successful")
	assert.Contains(t, out.String(), exp.Format(time.RFC3339))
}

func TestRunLogin_Error(t *testing.T) {
	loginErr := &api.Error{StatusCode: http.StatusBadRequest, Message: "Invalid credentials"}
	svc := &auth.ServiceMock{
		LoginFunc: func(context.Context, string, string) (*storage.AuthData, error) {
			return nil, loginErr
		},
	}
	c, _ := newTestCli("", svc)

	err := c.RunLogin(context.Background(), "alice@example.com", Passwords{FromArgs: "WrongPass1"})
	assert.ErrorIs(t, err, loginErr)
}

func TestRunLogout(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    string
		wantErr bool
	}{
		{name: "logged in", want: "Logged out"},
		{name: "not logged in", err: auth.ErrNotLoggedIn, want: "Not logged in."},
		{name: "storage failure", err: errors.New("disk"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &auth.ServiceMock{
				LogoutFunc: func(context.Context) error { return tt.err },
			}
			c, out := newTestCli("", svc)

			err := c.RunLogout(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		authData *storage.AuthData
		err      error
		want     []string
	}{
		{
			name: "not logged in",
			err:  auth.ErrNotLoggedIn,
			want: []string{"Status: Not authenticated"},
		},
		{
			name:     "active",
			authData: &storage.AuthData{Email: "alice@example.com", ServerURL: "http://localhost:8080", ExpiresAt: testNow.Add(90 * time.Minute)},
			want:     []string{"Status: Authenticated", "Email: alice@example.com", "Server: http://localhost:8080", "Time remaining: 1h30m0s"},
		},
		{
			name:     "expired",
			authData: &storage.AuthData{Email: "alice@example.com", ExpiresAt: testNow},
			want:     []string{"Status: Expired", "Token has expired"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &auth.ServiceMock{
				StatusFunc: func(context.Context) (*storage.AuthData, error) {
					return tt.authData, tt.err
				},
			}
			c, out := newTestCli("", svc)

			require.NoError(t, c.RunStatus(context.Background()))
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestRunWhoAmI(t *testing.T) {
	svc := &auth.ServiceMock{
		WhoAmIFunc: func(context.Context) (*pkgapi.MeResponse, error) {
			return &pkgapi.MeResponse{
				Email:     "alice@example.com",
				Subject:   "alice@example.com",
				TokenID:   "6f1c2b8e-0000-4000-8000-000000000001",
				IssuedAt:  testNow,
				ExpiresAt: testNow.Add(3 * time.Hour),
			}, nil
		},
	}
	c, out := newTestCli("", svc)

	require.NoError(t, c.RunWhoAmI(context.Background()))
	assert.Contains(t, out.String(), "Email: alice@example.com")
	assert.Contains(t, out.String(), "Token ID: 6f1c2b8e-0000-4000-8000-000000000001")
}

func TestRunWhoAmI_Expired(t *testing.T) {
	svc := &auth.ServiceMock{
		WhoAmIFunc: func(context.Context) (*pkgapi.MeResponse, error) {
			return nil, auth.ErrSessionExpired
		},
	}
	c, _ := newTestCli("", svc)

	assert.ErrorIs(t, c.RunWhoAmI(context.Background()), auth.ErrSessionExpired)
}
