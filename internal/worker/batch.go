package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factline/internal/model"
)

// Checker defines the interface for fact-checking one claim
type Checker interface {
	Run(ctx context.Context, text string, mode model.Mode) (*model.Result, error)
}

// CheckJob represents one claim to fact-check
type CheckJob struct {
	Index   int
	Claim   string
	Mode    model.Mode
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	result, err := j.Checker.Run(ctx, j.Claim, j.Mode)
	return &CheckResult{
		Index:  j.Index,
		Claim:  j.Claim,
		Result: result,
		Error:  err,
	}
}

// CheckResult represents the result of a check job
type CheckResult struct {
	Index  int
	Claim  string
	Result *model.Result
	Error  error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor fact-checks multiple claims concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessClaims checks claims concurrently and returns results in input order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string, mode model.Mode) []*CheckResult {
	if len(claims) == 0 {
		return []*CheckResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, claim := range claims {
		job := &CheckJob{
			Index:   i,
			Claim:   claim,
			Mode:    mode,
			Checker: b.checker,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	// Claims that never ran (cancelled context) are reported as errors
	ordered := make([]*CheckResult, len(claims))
	for _, result := range results {
		r := result.(*CheckResult)
		ordered[r.Index] = r
	}
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("claim not processed")
			}
			ordered[i] = &CheckResult{Index: i, Claim: claims[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, mode model.Mode) ([]*CheckResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims, mode), nil
}

// ReadClaimsFromFile reads claims from a file (one per line)
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate claims
		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
