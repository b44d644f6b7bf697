package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkorchagin/admission-analyzer/internal/config"
	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

type fakeRunRepo struct {
	runs     map[string]*domain.Run
	statuses []domain.RunStatus
	result   *domain.UnifiedResult
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: map[string]*domain.Run{}}
}

func (f *fakeRunRepo) Create(_ context.Context, run *domain.Run) error {
	f.runs[run.ID] = run
	f.statuses = append(f.statuses, run.Status)
	return nil
}

func (f *fakeRunRepo) GetByID(_ context.Context, id string) (*domain.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, nil
}

func (f *fakeRunRepo) MarkProcessing(_ context.Context, id string) error {
	return f.setStatus(id, domain.RunProcessing)
}

func (f *fakeRunRepo) Complete(_ context.Context, id string, result *domain.UnifiedResult) error {
	f.result = result
	return f.setStatus(id, domain.RunCompleted)
}

func (f *fakeRunRepo) Fail(_ context.Context, id string, _ string) error {
	return f.setStatus(id, domain.RunFailed)
}

func (f *fakeRunRepo) setStatus(id string, status domain.RunStatus) error {
	run, ok := f.runs[id]
	if !ok {
		return errors.New("run not found")
	}
	run.Status = status
	f.statuses = append(f.statuses, status)
	return nil
}

func testWorkerConfig() config.Config {
	return config.Config{
		LogLevel:               "error",
		InputExtensions:        []string{".pdf"},
		MaxFileSizeBytes:       1 << 20,
		ClassificationStrategy: "filename_only",
		NameMatchThreshold:     0.85,
		FinancialThresholdEUR:  15000,
		OutputFormat:           string(domain.FormatJSON),
		DispatchTimeout:        time.Second,
		RunDispatchTimeout:     2 * time.Second,
	}
}

func newTestWorker(t *testing.T) (*WorkerApp, *fakeRunRepo) {
	t.Helper()
	app, err := New(testWorkerConfig(), "worker-test")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	repo := newFakeRunRepo()
	return &WorkerApp{App: app, Repo: repo}, repo
}

func TestHandleRunLifecycle(t *testing.T) {
	inputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inputDir, "passport_scan.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	worker, repo := newTestWorker(t)
	err := worker.HandleRun(context.Background(), domain.RunRequest{
		RunID:       "run-1",
		InputFolder: inputDir,
		Format:      domain.FormatJSON,
	})
	if err != nil {
		t.Fatalf("HandleRun() error = %v", err)
	}

	want := []domain.RunStatus{domain.RunPending, domain.RunProcessing, domain.RunCompleted}
	if len(repo.statuses) != len(want) {
		t.Fatalf("unexpected status transitions: %v", repo.statuses)
	}
	for i, status := range want {
		if repo.statuses[i] != status {
			t.Fatalf("transition %d: expected %s, got %s", i, status, repo.statuses[i])
		}
	}
	if repo.result == nil || repo.result.RunID != "run-1" {
		t.Fatalf("completed run must store its result, got %+v", repo.result)
	}
}

func TestHandleRunFailureMarksRunFailed(t *testing.T) {
	worker, repo := newTestWorker(t)
	err := worker.HandleRun(context.Background(), domain.RunRequest{
		RunID:       "run-2",
		InputFolder: filepath.Join(t.TempDir(), "missing"),
	})
	if !errors.Is(err, domain.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}

	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.RunFailed {
		t.Fatalf("expected final status failed, got %v", repo.statuses)
	}
}

func TestHandleRunAssignsRunID(t *testing.T) {
	inputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inputDir, "passport_scan.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	worker, repo := newTestWorker(t)
	if err := worker.HandleRun(context.Background(), domain.RunRequest{InputFolder: inputDir}); err != nil {
		t.Fatalf("HandleRun() error = %v", err)
	}
	if len(repo.runs) != 1 {
		t.Fatalf("expected one registered run, got %d", len(repo.runs))
	}
	for id := range repo.runs {
		if id == "" {
			t.Fatal("run id must be assigned before registration")
		}
	}
}
