package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
	"github.com/ardakurt/kapinda-backend/pkg/metrics"
)

type remoteCart interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
}

type snapshotStore interface {
	Save(ctx context.Context, userID uuid.UUID, items []models.CartItem, now time.Time) error
	Load(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
	Drop(ctx context.Context, userID uuid.UUID) error
}

// Reconciler keeps the in-memory cart aligned with the authoritative rows
// and maintains the per-user fallback snapshot.
type Reconciler struct {
	remote    remoteCart
	snapshots snapshotStore
	logg      *logger.Logger
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

// NewReconciler wires a reconciler; the metrics handle may be nil in tests.
func NewReconciler(remote remoteCart, snapshots snapshotStore, logg *logger.Logger, m *metrics.OrderMetrics) (*Reconciler, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote cart repository required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{
		remote:    remote,
		snapshots: snapshots,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

// Load hydrates the state from the authoritative store. When that fails the
// owner-checked fallback snapshot is used instead; with neither available the
// session starts empty. The bool reports whether the fallback served the load.
func (r *Reconciler) Load(ctx context.Context, userID uuid.UUID, state *State) (bool, error) {
	items, err := r.remote.FindByUser(ctx, userID)
	if err == nil {
		state.Replace(items)
		r.saveSnapshot(ctx, userID, state)
		return false, nil
	}

	r.logg.Warn(r.logg.WithUserID(ctx, userID.String()), "cart load failed, trying fallback snapshot")

	snapshot, snapErr := r.snapshots.Load(ctx, userID)
	if snapErr != nil || snapshot == nil {
		state.Replace(nil)
		return false, nil
	}

	state.Replace(snapshot.Items)
	r.metrics.IncSnapshotFallback()
	return true, nil
}

// Persist runs one remote mutation after the optimistic in-memory update.
// Success refreshes the snapshot; failure triggers a single resync from the
// authoritative store and surfaces a dependency error to the caller.
func (r *Reconciler) Persist(ctx context.Context, userID uuid.UUID, state *State, op func(ctx context.Context) error) error {
	if err := op(ctx); err != nil {
		r.logg.Warn(r.logg.WithUserID(ctx, userID.String()), "cart persistence failed, resyncing")
		r.Resync(ctx, userID, state)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart change")
	}
	r.saveSnapshot(ctx, userID, state)
	return nil
}

// Resync reloads the state from the authoritative store once, best-effort.
func (r *Reconciler) Resync(ctx context.Context, userID uuid.UUID, state *State) {
	items, err := r.remote.FindByUser(ctx, userID)
	if err != nil {
		r.logg.Warn(r.logg.WithUserID(ctx, userID.String()), "cart resync failed, keeping in-memory state")
		return
	}
	state.Replace(items)
	r.saveSnapshot(ctx, userID, state)
}

// DropSnapshot removes the user's fallback snapshot (logout, order placed).
func (r *Reconciler) DropSnapshot(ctx context.Context, userID uuid.UUID) {
	if err := r.snapshots.Drop(ctx, userID); err != nil {
		r.logg.Warn(r.logg.WithUserID(ctx, userID.String()), "dropping cart snapshot failed")
	}
}

func (r *Reconciler) saveSnapshot(ctx context.Context, userID uuid.UUID, state *State) {
	if err := r.snapshots.Save(ctx, userID, state.Items(), r.now()); err != nil {
		r.logg.Warn(r.logg.WithUserID(ctx, userID.String()), "saving cart snapshot failed")
	}
}
