package worker

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/factline/internal/model"
)

// MockChecker implements Checker interface
type MockChecker struct {
	ShouldError bool
	calls       atomic.Int32
}

func (m *MockChecker) Run(ctx context.Context, text string, mode model.Mode) (*model.Result, error) {
	m.calls.Add(1)
	// Later claims finish first so ordering is exercised
	time.Sleep(time.Duration(20-len(text)%20) * time.Millisecond)
	if m.ShouldError {
		return nil, errors.New("check error")
	}
	return &model.Result{
		Claim: model.Claim{Text: text},
		Mode:  mode,
	}, nil
}

func writeTempFile(t *testing.T, pattern, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", pattern)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	claims := []string{"a", "claim two", "the third and longest claim"}
	results := processor.ProcessClaims(context.Background(), claims, model.ModeBrief)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %q: %v", res.Claim, res.Error)
			continue
		}
		if res.Index != i || res.Claim != claims[i] {
			t.Errorf("result %d out of order: %d %q", i, res.Index, res.Claim)
		}
		if res.Result == nil || res.Result.Claim.Text != claims[i] || res.Result.Mode != model.ModeBrief {
			t.Errorf("unexpected result for %q: %+v", claims[i], res.Result)
		}
	}
}

func TestBatchProcessor_ProcessClaims_Error(t *testing.T) {
	checker := &MockChecker{ShouldError: true}
	processor := NewBatchProcessor(checker, 2)

	results := processor.ProcessClaims(context.Background(), []string{"claim"}, model.ModeNormal)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Result != nil {
		t.Error("expected nil result on error")
	}
}

func TestBatchProcessor_ProcessClaims_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 2)

	results := processor.ProcessClaims(context.Background(), []string{}, model.ModeNormal)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessClaims_Cancelled(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claims := []string{"one", "two", "three"}
	results := processor.ProcessClaims(ctx, claims, model.ModeNormal)
	if len(results) != 3 {
		t.Fatalf("expected a result slot per claim, got %d", len(results))
	}
	for i, res := range results {
		if res.Error == nil {
			t.Errorf("expected error for unprocessed claim %d", i)
		}
		if res.Claim != claims[i] {
			t.Errorf("expected claim %q at %d, got %q", claims[i], i, res.Claim)
		}
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	content := `Company X announced bankruptcy
# comment
قیمت بنزین افزایش یافت

  Oil prices rose 5 percent   `

	claims, err := ReadClaimsFromFile(writeTempFile(t, "claims", content))
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}

	expected := []string{"Company X announced bankruptcy", "قیمت بنزین افزایش یافت", "Oil prices rose 5 percent"}
	if strings.Join(claims, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %q, got %q", expected, claims)
	}
}

func TestReadClaimsFromFile_NonExistent(t *testing.T) {
	_, err := ReadClaimsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadClaimsFromFile_Deduplication(t *testing.T) {
	claims, err := ReadClaimsFromFile(writeTempFile(t, "claims_dedup", "same claim\nsame claim\n"))
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("expected 1 claim after deduplication, got %d", len(claims))
	}
}

func TestCheckResult_GetError(t *testing.T) {
	r1 := &CheckResult{Claim: "x"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("check failed")
	r2 := &CheckResult{Claim: "x", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTempFile(t, "batch_claims", "claim one\nclaim two\n# comment\n\nclaim three\n")

	processor := NewBatchProcessor(&MockChecker{}, 2)
	results, err := processor.ProcessFile(context.Background(), path, model.ModePro)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt", model.ModeNormal)
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
