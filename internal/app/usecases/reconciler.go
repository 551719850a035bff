package usecases

import (
	"context"
	"fmt"
	"time"

	"shopify-catalog-sync/internal/adapters/shopify"
	"shopify-catalog-sync/internal/config"
	"shopify-catalog-sync/internal/domain/model"
	"shopify-catalog-sync/internal/infra/clock"
	"shopify-catalog-sync/internal/logging"
)

// RowSource yields every row of the catalog source. It checks the required
// columns before returning anything.
type RowSource interface {
	Rows(ctx context.Context) ([]model.Row, error)
}

type ReconcileService interface {
	Run(ctx context.Context) (Summary, error)
}

// Pacing holds the fixed waits used while the platform settles.
type Pacing struct {
	InventoryPoll clock.Policy
	SettleDelay   time.Duration
}

func PacingFromConfig(cfg config.SyncConfig) Pacing {
	return Pacing{
		InventoryPoll: clock.Policy{
			Attempts: cfg.InventoryPollAttempts,
			Interval: cfg.InventoryPollInterval,
		},
		SettleDelay: cfg.SettleDelay,
	}
}

type Summary struct {
	Groups          int
	Created         int
	Updated         int
	Failed          int
	RowsSkipped     int
	RowsFailed      int
	VariantsCreated int
}

func (s Summary) String() string {
	return fmt.Sprintf("groups=%d created=%d updated=%d failed=%d rows_skipped=%d rows_failed=%d variants_created=%d",
		s.Groups, s.Created, s.Updated, s.Failed, s.RowsSkipped, s.RowsFailed, s.VariantsCreated)
}

type ProductReconciler struct {
	source  RowSource
	lookup  *CatalogLookup
	creator *ProductCreator
	updater *ProductUpdater
	logger  logging.LoggerService
}

func NewProductReconciler(source RowSource, catalog shopify.CatalogService, logger logging.LoggerService, sleeper clock.Sleeper, pacing Pacing) *ProductReconciler {
	if logger == nil {
		logger = logging.Nop()
	}
	if sleeper == nil {
		sleeper = clock.Real()
	}
	assets := NewAssetAttacher(catalog, logger)
	publisher := NewSalesChannelPublisher(catalog, logger)
	return &ProductReconciler{
		source:  source,
		lookup:  NewCatalogLookup(catalog),
		creator: NewProductCreator(catalog, assets, publisher, logger, sleeper, pacing),
		updater: NewProductUpdater(catalog, assets, logger, sleeper, pacing),
		logger:  logger,
	}
}

var _ ReconcileService = (*ProductReconciler)(nil)

// Run reads the source and reconciles one handle group at a time. A
// source error aborts before any remote call. A failed group is logged and
// the run moves on; only cancellation stops it early.
func (r *ProductReconciler) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	rows, err := r.source.Rows(ctx)
	if err != nil {
		r.logger.LogError("Read catalog source failed", err)
		return summary, err
	}

	groups, skipped := model.GroupByHandle(rows)
	for _, row := range skipped {
		r.logger.LogWarning(fmt.Sprintf("Skipping row line=%d: %v", row.Line, model.ErrMissingHandle))
	}
	summary.RowsSkipped += len(skipped)
	summary.Groups = len(groups)
	r.logger.Log(fmt.Sprintf("Catalog sync started groups=%d rows=%d", len(groups), len(rows)))

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			r.logger.LogWarning(fmt.Sprintf("Catalog sync interrupted %s", summary))
			return summary, err
		}
		r.reconcileGroup(ctx, group, &summary)
	}

	if err := ctx.Err(); err != nil {
		r.logger.LogWarning(fmt.Sprintf("Catalog sync interrupted %s", summary))
		return summary, err
	}
	r.logger.Notify(fmt.Sprintf("Catalog sync finished %s", summary))
	return summary, nil
}

func (r *ProductReconciler) reconcileGroup(ctx context.Context, group model.RowGroup, summary *Summary) {
	r.logger.Log(fmt.Sprintf("Processing product handle=%s rows=%d", group.Handle, len(group.Rows)))

	group = r.prepare(group)
	for _, row := range group.Rows {
		if row.VariantErr() != nil {
			summary.RowsSkipped++
		}
	}

	product, err := r.lookup.Resolve(ctx, group.Handle)
	if err != nil {
		summary.Failed++
		r.logger.LogError(fmt.Sprintf("Lookup failed handle=%s", group.Handle), err)
		return
	}

	if !product.Exists() {
		if _, err := r.creator.Create(ctx, group); err != nil {
			summary.Failed++
			r.logger.LogError(fmt.Sprintf("Failed to create product handle=%s, skipping", group.Handle), err)
			return
		}
		summary.Created++
		r.logger.Log(fmt.Sprintf("Finished product handle=%s", group.Handle))
		return
	}

	result, err := r.updater.Update(ctx, product, group)
	summary.RowsFailed += result.RowsFailed
	summary.VariantsCreated += result.VariantsCreated
	if err != nil {
		summary.Failed++
		r.logger.LogError(fmt.Sprintf("Failed to update product handle=%s", group.Handle), err)
		return
	}
	summary.Updated++
	r.logger.Log(fmt.Sprintf("Finished product handle=%s updated=%d created=%d failed=%d", group.Handle, result.VariantsUpdated, result.VariantsCreated, result.RowsFailed))
}

// prepare normalizes row prices. A row whose price cannot be read stays in
// the group, so the first row still supplies the product fields, but is
// marked invalid and takes no part in variant processing.
func (r *ProductReconciler) prepare(group model.RowGroup) model.RowGroup {
	rows := make([]model.Row, 0, len(group.Rows))
	for _, row := range group.Rows {
		price, err := model.NormalizePrice(row.Price)
		if err != nil {
			row.Invalid = err
			r.logger.LogWarning(fmt.Sprintf("Skipping variant handle=%s line=%d: %v", group.Handle, row.Line, err))
		} else {
			row.Price = price
		}
		rows = append(rows, row)
	}
	return model.RowGroup{Handle: group.Handle, Rows: rows}
}
