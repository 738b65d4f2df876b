package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/migrations"
	"github.com/opencanteen/payroll-engine/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "payroll_test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrator(db, zap.NewNop()).Run(context.Background(), migrations.FS); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func newRunFixture(canteenID, status string, periodStart, periodEnd time.Time) *entity.PayrollRun {
	now := time.Now().UTC()
	run := &entity.PayrollRun{
		ID:            uuid.NewString(),
		CanteenID:     canteenID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Status:        status,
		ConfigVersion: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items: []*entity.PayrollItem{
			{
				StaffID:          "S-001",
				StaffName:        "Kamala Perera",
				Role:             "Chef",
				PayType:          entity.PayTypeHourly,
				PayRate:          decimal.NewFromInt(100),
				DaysWorked:       decimal.NewFromInt(10),
				TotalHoursWorked: decimal.NewFromInt(80),
				GrossPay:         decimal.RequireFromString("8000.00"),
				EPFEmployee:      decimal.RequireFromString("640.00"),
				EPFEmployer:      decimal.RequireFromString("960.00"),
				ETFEmployer:      decimal.RequireFromString("240.00"),
				TotalDeductions:  decimal.RequireFromString("640.00"),
				NetPay:           decimal.RequireFromString("7360.00"),
			},
		},
	}
	run.Items[0].RunID = run.ID
	run.RecomputeAggregates()
	return run
}

func day(d int) time.Time {
	return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestRunRepository_OverlappingPeriods(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(newTestDB(t), zap.NewNop())

	first := newRunFixture("c1", entity.StatusSubmitted, day(1), day(15))
	if err := repo.CreateWithItems(ctx, first); err != nil {
		t.Fatalf("CreateWithItems() error = %v", err)
	}

	t.Run("HasActiveRun sees a partial overlap", func(t *testing.T) {
		tests := []struct {
			name       string
			start, end time.Time
			want       bool
		}{
			{"identical period", day(1), day(15), true},
			{"straddles the tail", day(10), day(31), true},
			{"straddles the head", time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), day(5), true},
			{"fully contained", day(5), day(10), true},
			{"fully containing", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), day(31), true},
			{"shares only the boundary day", day(15), day(31), true},
			{"disjoint later period", day(16), day(31), false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.HasActiveRun(ctx, "c1", tt.start, tt.end)
				if err != nil {
					t.Fatalf("HasActiveRun() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("HasActiveRun(%s, %s) = %v, want %v",
						tt.start.Format("2006-01-02"), tt.end.Format("2006-01-02"), got, tt.want)
				}
			})
		}
	})

	t.Run("overlapping second run is rejected at commit", func(t *testing.T) {
		second := newRunFixture("c1", entity.StatusDraft, day(10), day(31))
		err := repo.CreateWithItems(ctx, second)
		if !errors.Is(err, entity.ErrDuplicatePeriod) {
			t.Fatalf("CreateWithItems() error = %v, want ErrDuplicatePeriod", err)
		}
		if _, err := repo.GetByID(ctx, second.ID); !errors.Is(err, entity.ErrNotFound) {
			t.Errorf("rejected run was persisted: %v", err)
		}
	})

	t.Run("disjoint period commits", func(t *testing.T) {
		next := newRunFixture("c1", entity.StatusDraft, day(16), day(31))
		if err := repo.CreateWithItems(ctx, next); err != nil {
			t.Fatalf("CreateWithItems() error = %v", err)
		}
	})

	t.Run("another canteen is unaffected", func(t *testing.T) {
		other := newRunFixture("c2", entity.StatusDraft, day(10), day(31))
		if err := repo.CreateWithItems(ctx, other); err != nil {
			t.Fatalf("CreateWithItems() error = %v", err)
		}
	})
}

func TestRunRepository_TerminalRunsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(newTestDB(t), zap.NewNop())

	rejected := newRunFixture("c1", entity.StatusRejected, day(1), day(15))
	if err := repo.CreateWithItems(ctx, rejected); err != nil {
		t.Fatalf("CreateWithItems() error = %v", err)
	}

	active, err := repo.HasActiveRun(ctx, "c1", day(1), day(15))
	if err != nil {
		t.Fatalf("HasActiveRun() error = %v", err)
	}
	if active {
		t.Error("terminal run reported as active")
	}

	regenerated := newRunFixture("c1", entity.StatusDraft, day(1), day(15))
	if err := repo.CreateWithItems(ctx, regenerated); err != nil {
		t.Fatalf("regeneration after rejection failed: %v", err)
	}
}
