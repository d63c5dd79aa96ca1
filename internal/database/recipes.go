package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const recipeColumns = `id, title, description, namespace, automatic, flip, rotate,
	rotate_crop, rotate_color, crop, width, height, upscale, fit, file_type,
	quality, created_at, updated_at`

func scanRecipe(row interface{ Scan(...any) error }) (*Recipe, error) {
	var r Recipe
	var createdAt, updatedAt int64
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Namespace, &r.Automatic, &r.Flip,
		&r.Rotate, &r.RotateCrop, &r.RotateColor, &r.Crop, &r.Width, &r.Height,
		&r.Upscale, &r.Fit, &r.FileType, &r.Quality, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(createdAt, 0)
	r.UpdatedAt = time.Unix(updatedAt, 0)
	return &r, nil
}

// CreateRecipe inserts a new recipe. The (namespace, title) pair must be
// unique; violations return ErrRecipeExists.
func (d *Database) CreateRecipe(ctx context.Context, r *Recipe) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_recipe", start, err) }()

	if err = r.Validate(); err != nil {
		return fmt.Errorf("invalid recipe: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := d.db.ExecContext(ctx, `
		INSERT INTO recipes (title, description, namespace, automatic, flip,
			rotate, rotate_crop, rotate_color, crop, width, height, upscale,
			fit, file_type, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Description, r.Namespace, r.Automatic, r.Flip,
		r.Rotate, r.RotateCrop, r.RotateColor, r.Crop, r.Width, r.Height,
		r.Upscale, r.Fit, r.FileType, r.Quality,
	)
	if execErr != nil {
		if strings.Contains(execErr.Error(), "UNIQUE constraint failed") {
			err = ErrRecipeExists
			return err
		}
		err = fmt.Errorf("failed to create recipe: %w", execErr)
		return err
	}

	id, idErr := result.LastInsertId()
	if idErr != nil {
		err = fmt.Errorf("failed to read recipe id: %w", idErr)
		return err
	}
	r.ID = id
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetRecipe retrieves a recipe by id.
func (d *Database) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_recipe", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	recipe, scanErr := scanRecipe(d.db.QueryRowContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE id = ?", id))
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			err = ErrRecipeNotFound
			return nil, err
		}
		err = fmt.Errorf("failed to get recipe: %w", scanErr)
		return nil, err
	}
	return recipe, nil
}

// GetRecipeByTitle retrieves a recipe by its (namespace, title) identity.
func (d *Database) GetRecipeByTitle(ctx context.Context, namespace, title string) (*Recipe, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_recipe", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	recipe, scanErr := scanRecipe(d.db.QueryRowContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE namespace = ? AND title = ?",
		namespace, title))
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			err = ErrRecipeNotFound
			return nil, err
		}
		err = fmt.Errorf("failed to get recipe: %w", scanErr)
		return nil, err
	}
	return recipe, nil
}

// ListRecipes returns recipes, optionally filtered by namespace and by the
// automatic flag.
func (d *Database) ListRecipes(ctx context.Context, namespace string, automaticOnly bool) ([]*Recipe, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_recipes", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "SELECT " + recipeColumns + " FROM recipes"
	var conditions []string
	var args []any
	if namespace != "" {
		conditions = append(conditions, "namespace = ?")
		args = append(args, namespace)
	}
	if automaticOnly {
		conditions = append(conditions, "automatic = 1")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY namespace, title"

	rows, queryErr := d.db.QueryContext(ctx, query, args...)
	if queryErr != nil {
		err = fmt.Errorf("failed to list recipes: %w", queryErr)
		return nil, err
	}
	defer rows.Close()

	var recipes []*Recipe
	for rows.Next() {
		recipe, scanErr := scanRecipe(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan recipe: %w", scanErr)
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe rewrites all editable fields of an existing recipe.
func (d *Database) UpdateRecipe(ctx context.Context, r *Recipe) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_recipe", start, err) }()

	if err = r.Validate(); err != nil {
		return fmt.Errorf("invalid recipe: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := d.db.ExecContext(ctx, `
		UPDATE recipes SET title = ?, description = ?, namespace = ?,
			automatic = ?, flip = ?, rotate = ?, rotate_crop = ?,
			rotate_color = ?, crop = ?, width = ?, height = ?, upscale = ?,
			fit = ?, file_type = ?, quality = ?,
			updated_at = strftime('%s', 'now')
		WHERE id = ?`,
		r.Title, r.Description, r.Namespace, r.Automatic, r.Flip, r.Rotate,
		r.RotateCrop, r.RotateColor, r.Crop, r.Width, r.Height, r.Upscale,
		r.Fit, r.FileType, r.Quality, r.ID,
	)
	if execErr != nil {
		if strings.Contains(execErr.Error(), "UNIQUE constraint failed") {
			err = ErrRecipeExists
			return err
		}
		err = fmt.Errorf("failed to update recipe: %w", execErr)
		return err
	}

	affected, affErr := result.RowsAffected()
	if affErr != nil {
		err = fmt.Errorf("failed to check update result: %w", affErr)
		return err
	}
	if affected == 0 {
		err = ErrRecipeNotFound
		return err
	}
	return nil
}

// DeleteRecipe removes a recipe and, via the foreign key cascade, its
// variants. Derived files on disk are an administrative concern.
func (d *Database) DeleteRecipe(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_recipe", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := d.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if execErr != nil {
		err = fmt.Errorf("failed to delete recipe: %w", execErr)
		return err
	}
	affected, affErr := result.RowsAffected()
	if affErr != nil {
		err = fmt.Errorf("failed to check delete result: %w", affErr)
		return err
	}
	if affected == 0 {
		err = ErrRecipeNotFound
		return err
	}
	return nil
}
