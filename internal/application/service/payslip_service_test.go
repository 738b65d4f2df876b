package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/internal/payslip"
)

type mockPayslipStore struct {
	getFunc  func(ctx context.Context, runID, staffID string) (*entity.Payslip, error)
	saveFunc func(ctx context.Context, slip *entity.Payslip) (*entity.Payslip, error)
}

func (m *mockPayslipStore) Get(ctx context.Context, runID, staffID string) (*entity.Payslip, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, runID, staffID)
	}
	return nil, entity.ErrNotFound
}

func (m *mockPayslipStore) Save(ctx context.Context, slip *entity.Payslip) (*entity.Payslip, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, slip)
	}
	return slip, nil
}

type mockRenderer struct {
	renderFunc func(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error)
}

func (m *mockRenderer) Render(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
	if m.renderFunc != nil {
		return m.renderFunc(ctx, run, item, cfg, generatedAt)
	}
	return []byte("%PDF-1.4"), nil
}

type mockExporter struct {
	exportFunc func(ctx context.Context, run *entity.PayrollRun, cfg *entity.PayrollConfig) ([]byte, error)
}

func (m *mockExporter) Export(ctx context.Context, run *entity.PayrollRun, cfg *entity.PayrollConfig) ([]byte, error) {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, run, cfg)
	}
	return []byte("xlsx"), nil
}

type mockArchive struct {
	storeFunc func(runID, fileName string, content []byte) error
}

func (m *mockArchive) Store(runID, fileName string, content []byte) error {
	if m.storeFunc != nil {
		return m.storeFunc(runID, fileName, content)
	}
	return nil
}

func approvedRunRepo() *mockRunRepo {
	return &mockRunRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.PayrollRun, error) {
			return &entity.PayrollRun{
				ID:            id,
				Status:        entity.StatusApproved,
				ConfigVersion: 1,
				Items: []*entity.PayrollItem{
					{RunID: id, StaffID: "S-001", StaffName: "Kamala Perera"},
				},
			}, nil
		},
	}
}

func newTestPayslipService(runRepo *mockRunRepo, store *mockPayslipStore, renderer *mockRenderer) PayslipService {
	return NewPayslipService(runRepo, &mockConfigStore{}, store, renderer, &mockExporter{}, &mockArchive{}, time.Second, &mockLogger{})
}

func TestPayslipService_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("renders and caches on first request", func(t *testing.T) {
		var saved *entity.Payslip
		store := &mockPayslipStore{
			saveFunc: func(ctx context.Context, slip *entity.Payslip) (*entity.Payslip, error) {
				saved = slip
				return slip, nil
			},
		}
		svc := newTestPayslipService(approvedRunRepo(), store, &mockRenderer{})

		slip, err := svc.Download(ctx, "run-1", "S-001")
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if slip.FileName != "payslip_S-001.pdf" {
			t.Errorf("file name = %s, want payslip_S-001.pdf", slip.FileName)
		}
		if saved == nil || len(saved.Content) == 0 {
			t.Error("payslip was not cached")
		}
	})

	t.Run("serves the cached copy without rendering again", func(t *testing.T) {
		cached := &entity.Payslip{
			RunID:    "run-1",
			StaffID:  "S-001",
			FileName: "payslip_S-001.pdf",
			Content:  []byte("cached"),
		}
		store := &mockPayslipStore{
			getFunc: func(ctx context.Context, runID, staffID string) (*entity.Payslip, error) {
				return cached, nil
			},
		}
		rendered := false
		renderer := &mockRenderer{
			renderFunc: func(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
				rendered = true
				return nil, nil
			},
		}
		svc := newTestPayslipService(approvedRunRepo(), store, renderer)

		slip, err := svc.Download(ctx, "run-1", "S-001")
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if string(slip.Content) != "cached" {
			t.Errorf("content = %q, want cached copy", slip.Content)
		}
		if rendered {
			t.Error("renderer ran despite cached copy")
		}
	})

	t.Run("renders against the run's config version", func(t *testing.T) {
		var renderedVersion int64
		renderer := &mockRenderer{
			renderFunc: func(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
				renderedVersion = cfg.Version
				return []byte("ok"), nil
			},
		}
		runRepo := &mockRunRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.PayrollRun, error) {
				return &entity.PayrollRun{
					ID:            id,
					Status:        entity.StatusApproved,
					ConfigVersion: 3,
					Items:         []*entity.PayrollItem{{RunID: id, StaffID: "S-001"}},
				}, nil
			},
		}
		svc := newTestPayslipService(runRepo, &mockPayslipStore{}, renderer)

		if _, err := svc.Download(ctx, "run-1", "S-001"); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if renderedVersion != 3 {
			t.Errorf("rendered config version = %d, want 3", renderedVersion)
		}
	})

	t.Run("non-approved run is refused", func(t *testing.T) {
		runRepo := &mockRunRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.PayrollRun, error) {
				return &entity.PayrollRun{ID: id, Status: entity.StatusUnderReview}, nil
			},
		}
		svc := newTestPayslipService(runRepo, &mockPayslipStore{}, &mockRenderer{})

		_, err := svc.Download(ctx, "run-1", "S-001")
		if !errors.Is(err, entity.ErrNotApproved) {
			t.Errorf("error = %v, want ErrNotApproved", err)
		}
	})

	t.Run("unknown staff in run returns not found", func(t *testing.T) {
		svc := newTestPayslipService(approvedRunRepo(), &mockPayslipStore{}, &mockRenderer{})

		_, err := svc.Download(ctx, "run-1", "S-999")
		if !errors.Is(err, entity.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("timeout is retried once then succeeds", func(t *testing.T) {
		attempts := 0
		renderer := &mockRenderer{
			renderFunc: func(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
				attempts++
				if attempts == 1 {
					return nil, payslip.ErrRenderTimeout
				}
				return []byte("ok"), nil
			},
		}
		svc := newTestPayslipService(approvedRunRepo(), &mockPayslipStore{}, renderer)

		slip, err := svc.Download(ctx, "run-1", "S-001")
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
		if string(slip.Content) != "ok" {
			t.Errorf("content = %q", slip.Content)
		}
	})

	t.Run("persistent timeout is surfaced", func(t *testing.T) {
		renderer := &mockRenderer{
			renderFunc: func(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
				return nil, payslip.ErrRenderTimeout
			},
		}
		svc := newTestPayslipService(approvedRunRepo(), &mockPayslipStore{}, renderer)

		_, err := svc.Download(ctx, "run-1", "S-001")
		if !errors.Is(err, payslip.ErrRenderTimeout) {
			t.Errorf("error = %v, want ErrRenderTimeout", err)
		}
	})

	t.Run("concurrent render race returns the stored artifact", func(t *testing.T) {
		winner := &entity.Payslip{
			RunID:    "run-1",
			StaffID:  "S-001",
			FileName: "payslip_S-001.pdf",
			Content:  []byte("winner"),
		}
		store := &mockPayslipStore{
			saveFunc: func(ctx context.Context, slip *entity.Payslip) (*entity.Payslip, error) {
				return winner, nil
			},
		}
		svc := newTestPayslipService(approvedRunRepo(), store, &mockRenderer{})

		slip, err := svc.Download(ctx, "run-1", "S-001")
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if string(slip.Content) != "winner" {
			t.Errorf("content = %q, want the first writer's copy", slip.Content)
		}
	})
}

func TestPayslipService_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("exports an approved run", func(t *testing.T) {
		svc := newTestPayslipService(approvedRunRepo(), &mockPayslipStore{}, &mockRenderer{})

		content, fileName, err := svc.Export(ctx, "run-1")
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if fileName != "payroll_run_run-1.xlsx" {
			t.Errorf("file name = %s", fileName)
		}
		if len(content) == 0 {
			t.Error("export produced no content")
		}
	})

	t.Run("refuses a draft run", func(t *testing.T) {
		runRepo := &mockRunRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.PayrollRun, error) {
				return &entity.PayrollRun{ID: id, Status: entity.StatusDraft}, nil
			},
		}
		svc := newTestPayslipService(runRepo, &mockPayslipStore{}, &mockRenderer{})

		_, _, err := svc.Export(ctx, "run-1")
		if !errors.Is(err, entity.ErrNotApproved) {
			t.Errorf("error = %v, want ErrNotApproved", err)
		}
	})

	t.Run("archive failure does not fail the export", func(t *testing.T) {
		archive := &mockArchive{
			storeFunc: func(runID, fileName string, content []byte) error {
				return errors.New("disk full")
			},
		}
		svc := NewPayslipService(approvedRunRepo(), &mockConfigStore{}, &mockPayslipStore{}, &mockRenderer{}, &mockExporter{}, archive, time.Second, &mockLogger{})

		if _, _, err := svc.Export(ctx, "run-1"); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
	})
}
