package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestGetOrCreateVariant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	recipe := testRecipe("abc", "thumbnail")
	if err := db.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	first, err := db.GetOrCreateVariant(ctx, "sources/cat.jpg", recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreateVariant failed: %v", err)
	}
	if first.Status != StatusPending {
		t.Errorf("new variant status = %q, want pending", first.Status)
	}
	if first.DerivedPath != "" {
		t.Errorf("new variant should have no derived path, got %q", first.DerivedPath)
	}
	if first.UUID == "" {
		t.Error("new variant should have a uuid")
	}

	// Repeated calls return the same row, never a duplicate
	second, err := db.GetOrCreateVariant(ctx, "sources/cat.jpg", recipe.ID)
	if err != nil {
		t.Fatalf("second GetOrCreateVariant failed: %v", err)
	}
	if second.ID != first.ID || second.UUID != first.UUID {
		t.Errorf("get-or-create returned a different row: %+v vs %+v", first, second)
	}

	stats, err := db.GetVariantStats(ctx)
	if err != nil {
		t.Fatalf("GetVariantStats failed: %v", err)
	}
	if stats.TotalVariants != 1 {
		t.Errorf("TotalVariants = %d, want 1", stats.TotalVariants)
	}
}

func TestGetOrCreateVariantConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	recipe := testRecipe("abc", "thumbnail")
	if err := db.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	const workers = 8
	results := make(chan *Variant, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			v, err := db.GetOrCreateVariant(ctx, "sources/race.jpg", recipe.ID)
			if err != nil {
				errs <- err
				return
			}
			results <- v
		}()
	}

	var ids []int64
	for i := 0; i < workers; i++ {
		select {
		case v := <-results:
			ids = append(ids, v.ID)
		case err := <-errs:
			t.Fatalf("concurrent GetOrCreateVariant failed: %v", err)
		}
	}

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent get-or-create produced different rows: %v", ids)
		}
	}
}

func TestClaimFinishVariant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	recipe := testRecipe("abc", "thumbnail")
	if err := db.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	variant, err := db.GetOrCreateVariant(ctx, "sources/cat.jpg", recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreateVariant failed: %v", err)
	}

	claimed, err := db.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}
	if !claimed {
		t.Fatal("first claim should succeed")
	}

	// Second claim must lose
	claimed, err = db.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("second ClaimVariant failed: %v", err)
	}
	if claimed {
		t.Fatal("second claim should fail while processing")
	}

	if err := db.FinishVariant(ctx, variant.UUID, "images/ab-1.jpeg", 200, 150, 12345); err != nil {
		t.Fatalf("FinishVariant failed: %v", err)
	}

	got, err := db.GetVariantByUUID(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("GetVariantByUUID failed: %v", err)
	}
	if !got.Processed() {
		t.Errorf("variant should be processed: %+v", got)
	}
	if got.DerivedPath != "images/ab-1.jpeg" || got.Width != 200 || got.Height != 150 || got.Size != 12345 {
		t.Errorf("finish fields not persisted: %+v", got)
	}

	// Claiming a processed variant must fail: processed is terminal
	claimed, err = db.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("ClaimVariant on processed failed: %v", err)
	}
	if claimed {
		t.Error("claim of processed variant should fail")
	}

	// Finishing again must fail: derived_path is set exactly once
	if err := db.FinishVariant(ctx, variant.UUID, "images/other.jpeg", 1, 1, 1); err == nil {
		t.Error("second FinishVariant should fail")
	}
}

func TestReleaseVariant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	recipe := testRecipe("abc", "thumbnail")
	if err := db.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	variant, err := db.GetOrCreateVariant(ctx, "sources/cat.jpg", recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreateVariant failed: %v", err)
	}

	if _, err := db.ClaimVariant(ctx, variant.UUID); err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}
	if err := db.ReleaseVariant(ctx, variant.UUID); err != nil {
		t.Fatalf("ReleaseVariant failed: %v", err)
	}

	got, err := db.GetVariantByUUID(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("GetVariantByUUID failed: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("released variant status = %q, want pending", got.Status)
	}
	if got.DerivedPath != "" {
		t.Errorf("released variant should have no derived path, got %q", got.DerivedPath)
	}

	// The next request can claim again
	claimed, err := db.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("re-claim failed: %v", err)
	}
	if !claimed {
		t.Error("released variant should be claimable again")
	}
}

func TestGetVariantNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetVariantByUUID(ctx, "no-such-uuid"); !errors.Is(err, ErrVariantNotFound) {
		t.Errorf("GetVariantByUUID returned %v, want ErrVariantNotFound", err)
	}
}

func TestClaimRecoveredOnReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "multires.db")

	db, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	recipe := testRecipe("abc", "thumbnail")
	if err := db.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	variant, err := db.GetOrCreateVariant(ctx, "sources/cat.jpg", recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreateVariant failed: %v", err)
	}
	if _, err := db.ClaimVariant(ctx, variant.UUID); err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}

	// Simulate a crash between claim and release: the claim is never
	// released before the process goes away.
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetVariantByUUID(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("GetVariantByUUID failed: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("variant status after reopen = %q, want pending", got.Status)
	}

	claimed, err := reopened.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("ClaimVariant after reopen failed: %v", err)
	}
	if !claimed {
		t.Error("variant should be claimable after reopen")
	}
}

func TestClaimStaleTakeover(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	recipe := testRecipe("abc", "thumbnail")
	if err := db.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	variant, err := db.GetOrCreateVariant(ctx, "sources/cat.jpg", recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreateVariant failed: %v", err)
	}

	if _, err := db.ClaimVariant(ctx, variant.UUID); err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}

	// A fresh claim stays exclusive
	claimed, err := db.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}
	if claimed {
		t.Fatal("fresh claim should not be taken over")
	}

	// Age the claim past the abandonment threshold, as if its holder died
	// in another process without releasing it
	_, err = db.db.ExecContext(ctx,
		"UPDATE variants SET updated_at = updated_at - ? WHERE uuid = ?",
		int64(staleClaimAge.Seconds())+1, variant.UUID)
	if err != nil {
		t.Fatalf("failed to age claim: %v", err)
	}

	claimed, err = db.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}
	if !claimed {
		t.Error("stale claim should be taken over")
	}

	// The takeover refreshed the claim, so it is exclusive again
	claimed, err = db.ClaimVariant(ctx, variant.UUID)
	if err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}
	if claimed {
		t.Error("taken-over claim should be exclusive again")
	}
}

func TestListVariantsBySource(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	abcThumb := testRecipe("abc", "thumbnail")
	abcBanner := testRecipe("abc", "banner")
	xyzThumb := testRecipe("xyz", "thumbnail")
	for _, r := range []*Recipe{abcThumb, abcBanner, xyzThumb} {
		if err := db.CreateRecipe(ctx, r); err != nil {
			t.Fatalf("CreateRecipe failed: %v", err)
		}
	}

	for _, recipeID := range []int64{abcThumb.ID, abcBanner.ID, xyzThumb.ID} {
		if _, err := db.GetOrCreateVariant(ctx, "sources/cat.jpg", recipeID); err != nil {
			t.Fatalf("GetOrCreateVariant failed: %v", err)
		}
	}

	variants, err := db.ListVariantsBySource(ctx, "sources/cat.jpg", "abc")
	if err != nil {
		t.Fatalf("ListVariantsBySource failed: %v", err)
	}
	if len(variants) != 2 {
		t.Errorf("got %d variants in namespace abc, want 2", len(variants))
	}

	none, err := db.ListVariantsBySource(ctx, "sources/dog.jpg", "abc")
	if err != nil {
		t.Fatalf("ListVariantsBySource failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d variants for unknown source, want 0", len(none))
	}
}

func TestGetVariantStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	recipe := testRecipe("abc", "thumbnail")
	if err := db.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	done, err := db.GetOrCreateVariant(ctx, "sources/a.jpg", recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreateVariant failed: %v", err)
	}
	if _, err := db.GetOrCreateVariant(ctx, "sources/b.jpg", recipe.ID); err != nil {
		t.Fatalf("GetOrCreateVariant failed: %v", err)
	}

	if _, err := db.ClaimVariant(ctx, done.UUID); err != nil {
		t.Fatalf("ClaimVariant failed: %v", err)
	}
	if err := db.FinishVariant(ctx, done.UUID, "images/a-1.jpeg", 10, 10, 100); err != nil {
		t.Fatalf("FinishVariant failed: %v", err)
	}

	stats, err := db.GetVariantStats(ctx)
	if err != nil {
		t.Fatalf("GetVariantStats failed: %v", err)
	}
	if stats.TotalRecipes != 1 || stats.TotalVariants != 2 ||
		stats.ProcessedVariants != 1 || stats.PendingVariants != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
