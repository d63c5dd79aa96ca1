package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const variantColumns = `id, uuid, source, recipe_id, status, derived_path,
	width, height, size, created_at, updated_at`

func scanVariant(row interface{ Scan(...any) error }) (*Variant, error) {
	var v Variant
	var createdAt, updatedAt int64
	err := row.Scan(
		&v.ID, &v.UUID, &v.Source, &v.RecipeID, &v.Status, &v.DerivedPath,
		&v.Width, &v.Height, &v.Size, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = time.Unix(createdAt, 0)
	v.UpdatedAt = time.Unix(updatedAt, 0)
	return &v, nil
}

// GetOrCreateVariant returns the variant row for (source, recipeID),
// creating an unprocessed row when none exists. The UNIQUE(source, recipe_id)
// constraint guarantees at most one row per pair even when two requests
// race on the insert.
func (d *Database) GetOrCreateVariant(ctx context.Context, source string, recipeID int64) (*Variant, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_or_create_variant", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// The conflict target makes the racing loser a no-op; both requests then
	// read the same row back.
	_, execErr := d.db.ExecContext(ctx, `
		INSERT INTO variants (uuid, source, recipe_id)
		VALUES (?, ?, ?)
		ON CONFLICT(source, recipe_id) DO NOTHING`,
		uuid.NewString(), source, recipeID,
	)
	if execErr != nil {
		err = fmt.Errorf("failed to create variant: %w", execErr)
		return nil, err
	}

	variant, scanErr := scanVariant(d.db.QueryRowContext(ctx,
		"SELECT "+variantColumns+" FROM variants WHERE source = ? AND recipe_id = ?",
		source, recipeID))
	if scanErr != nil {
		err = fmt.Errorf("failed to read variant back: %w", scanErr)
		return nil, err
	}
	return variant, nil
}

// GetVariantByUUID retrieves a variant by its uuid.
func (d *Database) GetVariantByUUID(ctx context.Context, id string) (*Variant, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_variant", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	variant, scanErr := scanVariant(d.db.QueryRowContext(ctx,
		"SELECT "+variantColumns+" FROM variants WHERE uuid = ?", id))
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			err = ErrVariantNotFound
			return nil, err
		}
		err = fmt.Errorf("failed to get variant: %w", scanErr)
		return nil, err
	}
	return variant, nil
}

// ListVariantsBySource returns all variants of one source image whose recipe
// belongs to the given namespace.
func (d *Database) ListVariantsBySource(ctx context.Context, source, namespace string) ([]*Variant, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_variant", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, queryErr := d.db.QueryContext(ctx, `
		SELECT v.id, v.uuid, v.source, v.recipe_id, v.status, v.derived_path,
			v.width, v.height, v.size, v.created_at, v.updated_at
		FROM variants v
		JOIN recipes r ON r.id = v.recipe_id
		WHERE v.source = ? AND r.namespace = ?
		ORDER BY r.title`,
		source, namespace)
	if queryErr != nil {
		err = fmt.Errorf("failed to list variants: %w", queryErr)
		return nil, err
	}
	defer rows.Close()

	var variants []*Variant
	for rows.Next() {
		variant, scanErr := scanVariant(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan variant: %w", scanErr)
			return nil, err
		}
		variants = append(variants, variant)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return variants, nil
}

// staleClaimAge is how old a processing claim must be before another
// request may take it over. Claims normally live for one render; one this
// old belongs to a process that died without releasing it.
const staleClaimAge = 10 * time.Minute

// ClaimVariant attempts to move a variant from pending to processing.
// Exactly one of several concurrent callers wins the claim; the affected-row
// count arbitrates. A false return with no error means another request holds
// the claim or the variant is already processed. Claims older than
// staleClaimAge are treated as abandoned and can be re-claimed, so a
// crashed worker in a multi-process deployment never wedges a variant.
func (d *Database) ClaimVariant(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("claim_variant", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := d.db.ExecContext(ctx, `
		UPDATE variants SET status = ?, updated_at = strftime('%s', 'now')
		WHERE uuid = ? AND (status = ?
			OR (status = ? AND updated_at < strftime('%s', 'now') - ?))`,
		StatusProcessing, id, StatusPending,
		StatusProcessing, int64(staleClaimAge.Seconds()),
	)
	if execErr != nil {
		err = fmt.Errorf("failed to claim variant: %w", execErr)
		return false, err
	}
	affected, affErr := result.RowsAffected()
	if affErr != nil {
		err = fmt.Errorf("failed to check claim result: %w", affErr)
		return false, err
	}
	return affected == 1, nil
}

// FinishVariant marks a claimed variant processed and records the derived
// file. This is the only transition that sets derived_path, and it happens
// exactly once per variant.
func (d *Database) FinishVariant(ctx context.Context, id, derivedPath string, width, height int, size int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("finish_variant", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := d.db.ExecContext(ctx, `
		UPDATE variants SET status = ?, derived_path = ?, width = ?,
			height = ?, size = ?, updated_at = strftime('%s', 'now')
		WHERE uuid = ? AND status = ?`,
		StatusProcessed, derivedPath, width, height, size, id, StatusProcessing,
	)
	if execErr != nil {
		err = fmt.Errorf("failed to finish variant: %w", execErr)
		return err
	}
	affected, affErr := result.RowsAffected()
	if affErr != nil {
		err = fmt.Errorf("failed to check finish result: %w", affErr)
		return err
	}
	if affected == 0 {
		err = fmt.Errorf("variant %s was not in processing state", id)
		return err
	}
	return nil
}

// ReleaseVariant returns a claimed variant to pending after a failed render
// so the next request can retry from scratch.
func (d *Database) ReleaseVariant(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("release_variant", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, execErr := d.db.ExecContext(ctx, `
		UPDATE variants SET status = ?, updated_at = strftime('%s', 'now')
		WHERE uuid = ? AND status = ?`,
		StatusPending, id, StatusProcessing,
	)
	if execErr != nil {
		err = fmt.Errorf("failed to release variant: %w", execErr)
		return err
	}
	return nil
}

// GetVariantStats returns row counts for the admin stats endpoint.
func (d *Database) GetVariantStats(ctx context.Context) (*VariantStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("variant_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats VariantStats
	err = d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM recipes),
			(SELECT COUNT(*) FROM variants),
			(SELECT COUNT(*) FROM variants WHERE status = ?),
			(SELECT COUNT(*) FROM variants WHERE status = ?)`,
		StatusProcessed, StatusPending,
	).Scan(&stats.TotalRecipes, &stats.TotalVariants,
		&stats.ProcessedVariants, &stats.PendingVariants)
	if err != nil {
		return nil, fmt.Errorf("failed to read variant stats: %w", err)
	}
	return &stats, nil
}
