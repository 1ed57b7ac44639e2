package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "disabled")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("OPERATOR_SECRET", "test-secret")

	out, err := execute(t, "", "token", "--operator", "ops")
	if err != nil {
		t.Fatalf("token: %s", err)
	}
	service := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "ferry"})
	claims, err := service.ValidateToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Expected a valid token but actual=%v", err)
	}
	if claims.Operator != "ops" {
		t.Errorf("Expected operator ops but actual=%v", claims.Operator)
	}
}

func TestTokenCommandChecksPassphrase(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %s", err)
	}
	t.Setenv("OPERATOR_SECRET", "test-secret")
	t.Setenv("OPERATOR_PASSPHRASE_HASH", string(hash))

	if _, err := execute(t, "open sesame\n", "token", "--operator", "ops"); err != nil {
		t.Errorf("Expected the right passphrase to be accepted but actual=%v", err)
	}
	if _, err := execute(t, "open barley\n", "token", "--operator", "ops"); !errors.Is(err, apperrors.ErrInvalidPassphrase) {
		t.Errorf("Expected ErrInvalidPassphrase but actual=%v", err)
	}
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("OPERATOR_SECRET", "")
	if _, err := execute(t, "", "token", "--operator", "ops"); err == nil {
		t.Errorf("Expected a missing secret to be rejected")
	}
}

func TestTokenHashCommand(t *testing.T) {
	out, err := execute(t, "open sesame\n", "token", "hash")
	if err != nil {
		t.Fatalf("token hash: %s", err)
	}
	if err := auth.CheckPassphrase(strings.TrimSpace(out), "open sesame"); err != nil {
		t.Errorf("Expected the printed hash to match but actual=%v", err)
	}
}

func TestPrintRun(t *testing.T) {
	report := models.NewReport()
	report.Courses = 1234
	report.SkippedSeasons = []models.SkippedSeason{{SeasonCode: "202303", Reason: "no listings"}}
	report.Drop("invalid_listing", 3)
	report.Ambiguity("professor_email", 2)
	run := &models.PipelineRun{ID: uuid.New(), Status: models.RunSucceeded}

	var out bytes.Buffer
	printRun(&out, run, report)

	for _, expected := range []string{run.ID.String(), "SUCCEEDED", "1234", "202303", "invalid_listing", "professor_email"} {
		if !strings.Contains(out.String(), expected) {
			t.Errorf("Expected %q in the output:\n%s", expected, out.String())
		}
	}
}
