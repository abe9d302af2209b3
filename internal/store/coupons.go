package store

import (
	"context"
	"database/sql"

	"career-readiness/internal/common/database"
	"career-readiness/internal/common/errors"
)

// CouponMaxUses is the usage cap every coupon gets on migration.
const CouponMaxUses = 100

type CouponMigrationReport struct {
	Total   int  `json:"total"`
	Used    int  `json:"used"`
	Unused  int  `json:"unused"`
	Updated int  `json:"updated"`
	DryRun  bool `json:"dryRun"`
}

// MigrateCoupons moves coupons from the single-use flag to usage counters:
// max_uses becomes CouponMaxUses and current_uses is 1 for used coupons and
// 0 otherwise. Everything runs in one transaction; dryRun reports the counts
// and rolls back.
func MigrateCoupons(ctx context.Context, db *sql.DB, dryRun bool) (*CouponMigrationReport, error) {
	report := &CouponMigrationReport{DryRun: dryRun}
	errDryRun := errors.New("dry run")

	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*), COUNT(*) FILTER (WHERE is_used)
			FROM coupons`).Scan(&report.Total, &report.Used); err != nil {
			return errors.NewQueryExecutionFailedError("count coupons", err)
		}
		report.Unused = report.Total - report.Used

		if dryRun {
			return errDryRun
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE coupons
			SET max_uses = $1,
			    current_uses = CASE WHEN is_used THEN 1 ELSE 0 END`, CouponMaxUses)
		if err != nil {
			return errors.NewQueryExecutionFailedError("migrate coupons", err)
		}
		n, _ := res.RowsAffected()
		report.Updated = int(n)
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}
	return report, nil
}
