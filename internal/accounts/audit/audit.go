// Package audit sweeps the directory for accounts whose manager reference no
// longer resolves to a user.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
)

// Report is the outcome of one sweep.
type Report struct {
	CheckedAt time.Time
	Accounts  int
	// Orphaned lists account ids whose manager is missing from the directory.
	Orphaned []string
}

type Auditor struct {
	dir directory.Directory
	log *zap.Logger
}

func NewAuditor(dir directory.Directory, log *zap.Logger) *Auditor {
	return &Auditor{dir: dir, log: log}
}

// Run performs a single sweep.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	accounts, err := a.dir.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	report := &Report{CheckedAt: time.Now().UTC(), Accounts: len(accounts)}
	for _, acct := range accounts {
		_, err := a.dir.LookupUser(ctx, acct.Manager)
		if errors.Is(err, domain.ErrUserNotFound) {
			report.Orphaned = append(report.Orphaned, acct.ID)
			a.log.Warn("account manager does not resolve",
				zap.String("account_id", acct.ID),
				zap.String("manager", acct.Manager),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup manager of %s: %w", acct.ID, err)
		}
	}

	a.log.Info("directory audit finished",
		zap.Int("accounts", report.Accounts),
		zap.Int("orphaned", len(report.Orphaned)),
	)
	return report, nil
}

// Schedule registers the sweep on a cron spec with a seconds field and starts
// the scheduler. Stop the returned cron to end it.
func (a *Auditor) Schedule(spec string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := a.Run(ctx); err != nil {
			a.log.Error("directory audit failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", spec, err)
	}

	c.Start()
	a.log.Info("directory audit scheduled", zap.String("schedule", spec))
	return c, nil
}
