package multires

import (
	"context"
	"fmt"
	"time"

	"multires/internal/database"
	"multires/internal/engine"
	"multires/internal/logging"
	"multires/internal/metrics"
	"multires/internal/storage"
)

// renderPollInterval is how often a waiting request re-checks a variant
// claimed by another worker.
const renderPollInterval = 250 * time.Millisecond

// Render makes sure the variant's derived file exists and returns the
// up-to-date row. Already processed variants return immediately. Otherwise
// the caller races to claim the render; the winner does the image work and
// the losers poll until it finishes or the grace period runs out.
//
// Rendering the same variant twice is harmless: the derived path is a
// deterministic function of the source and recipe, so a re-render lands on
// the same file.
func (s *Service) Render(ctx context.Context, recipe *database.Recipe, v *database.Variant) (*database.Variant, error) {
	if v.Processed() {
		metrics.VariantCacheHits.Inc()
		return v, nil
	}

	claimed, err := s.db.ClaimVariant(ctx, v.UUID)
	if err != nil {
		return nil, fmt.Errorf("claiming variant %s: %w", v.UUID, err)
	}
	if !claimed {
		return s.waitForRender(ctx, recipe, v.UUID)
	}

	if err := s.render(ctx, recipe, v); err != nil {
		return nil, err
	}
	return s.db.GetVariantByUUID(ctx, v.UUID)
}

// waitForRender polls a variant someone else claimed. If the other worker
// releases it instead of finishing, the waiter takes over the claim.
func (s *Service) waitForRender(ctx context.Context, recipe *database.Recipe, uuid string) (*database.Variant, error) {
	metrics.RenderWaits.Inc()
	logging.Debug("Waiting for variant %s claimed by another request", uuid)

	deadline := time.Now().Add(s.renderWait)
	ticker := time.NewTicker(renderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		v, err := s.db.GetVariantByUUID(ctx, uuid)
		if err != nil {
			return nil, err
		}
		if v.Processed() {
			return v, nil
		}

		// Released back to pending: the worker that held the claim
		// failed, so take over.
		if v.Status == database.StatusPending {
			claimed, err := s.db.ClaimVariant(ctx, uuid)
			if err != nil {
				return nil, err
			}
			if claimed {
				if err := s.render(ctx, recipe, v); err != nil {
					return nil, err
				}
				return s.db.GetVariantByUUID(ctx, uuid)
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("variant %s: %w", uuid, ErrRenderTimeout)
		}
	}
}

// render runs the image pipeline for a claimed variant. The claim is
// released on any failure so the variant stays retryable; only a completed
// write moves it to processed.
func (s *Service) render(ctx context.Context, recipe *database.Recipe, v *database.Variant) error {
	start := time.Now()
	metrics.RendersInProgress.Inc()
	defer metrics.RendersInProgress.Dec()

	fileType := string(recipe.FileType)

	src, err := s.files.Open(v.Source)
	if err != nil {
		s.release(ctx, v.UUID)
		metrics.RendersTotal.WithLabelValues(fileType, "error_source").Inc()
		return &StorageError{Variant: v.UUID, Path: v.Source, Err: err}
	}
	defer src.Close()

	result, err := engine.Render(src, recipe)
	if err != nil {
		s.release(ctx, v.UUID)
		metrics.RendersTotal.WithLabelValues(fileType, "error_process").Inc()
		return &ProcessingError{Variant: v.UUID, Err: err}
	}

	derivedPath := storage.DerivedPath(v.Source, recipe.ID, recipe.FileType)
	if err := s.files.Save(derivedPath, result.Data); err != nil {
		s.release(ctx, v.UUID)
		metrics.RendersTotal.WithLabelValues(fileType, "error_storage").Inc()
		return &StorageError{Variant: v.UUID, Path: derivedPath, Err: err}
	}

	if err := s.db.FinishVariant(ctx, v.UUID, derivedPath, result.Width, result.Height, int64(len(result.Data))); err != nil {
		metrics.RendersTotal.WithLabelValues(fileType, "error_storage").Inc()
		return fmt.Errorf("finishing variant %s: %w", v.UUID, err)
	}

	metrics.RendersTotal.WithLabelValues(fileType, "success").Inc()
	metrics.RenderDuration.WithLabelValues(fileType).Observe(time.Since(start).Seconds())
	logging.Info("Rendered variant %s (%s, %dx%d, %d bytes) in %v",
		v.UUID, recipe.Title, result.Width, result.Height, len(result.Data), time.Since(start).Round(time.Millisecond))
	return nil
}

// release puts a claimed variant back to pending, logging rather than
// failing if the release itself cannot be recorded.
func (s *Service) release(ctx context.Context, uuid string) {
	if err := s.db.ReleaseVariant(ctx, uuid); err != nil {
		logging.Error("Failed to release variant %s: %v", uuid, err)
	}
}
