package timeoff

import (
	"context"
	"log/slog"
	"strings"

	"github.com/warp/candleworks/generic"
)

// Roster registers and maintains workers. The leave counter is owned by the
// Scheduler; Roster never changes it except to start it at zero.
type Roster struct {
	store generic.Store
	log   *slog.Logger
}

func NewRoster(store generic.Store, opts ...Option) *Roster {
	o := buildOptions(opts)
	return &Roster{store: store, log: o.log.With("component", "roster")}
}

func (in WorkerInput) validate() error {
	if strings.TrimSpace(in.FirstName) == "" {
		return generic.Invalid("first_name", "is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return generic.Invalid("last_name", "is required")
	}
	return nil
}

func (in WorkerInput) filter() generic.WorkerFilter {
	return generic.WorkerFilter{FirstName: in.FirstName, LastName: in.LastName, Phone: in.Phone}
}

// duplicate reports whether another worker has the same name and phone.
func (r *Roster) duplicate(ctx context.Context, in WorkerInput, selfID string) (bool, error) {
	matches, err := r.store.Workers().Find(ctx, in.filter())
	if err != nil {
		return false, err
	}
	for _, w := range matches {
		// empty filter fields match anything, so compare exactly here
		if w.ID != selfID && w.FirstName == in.FirstName && w.LastName == in.LastName && w.Phone == in.Phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *Roster) Register(ctx context.Context, in WorkerInput) (generic.Worker, error) {
	if err := in.validate(); err != nil {
		return generic.Worker{}, err
	}

	var worker generic.Worker
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		dup, err := r.duplicate(ctx, in, "")
		if err != nil {
			return err
		}
		if dup {
			return generic.AlreadyExists("worker", in.FirstName+" "+in.LastName+" "+in.Phone)
		}
		worker = generic.Worker{
			ID:        generic.NewID(),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Phone:     in.Phone,
		}
		return r.store.Workers().Save(ctx, worker)
	})
	if err != nil {
		return generic.Worker{}, err
	}
	r.log.Info("worker registered", "worker_id", worker.ID, "name", worker.FullName())
	return worker, nil
}

// Edit updates name and phone, preserving the leave counter.
func (r *Roster) Edit(ctx context.Context, id string, in WorkerInput) (generic.Worker, error) {
	if err := in.validate(); err != nil {
		return generic.Worker{}, err
	}

	var worker generic.Worker
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := r.store.Workers().Get(ctx, id)
		if err != nil {
			return err
		}
		dup, err := r.duplicate(ctx, in, id)
		if err != nil {
			return err
		}
		if dup {
			return generic.AlreadyExists("worker", in.FirstName+" "+in.LastName+" "+in.Phone)
		}
		worker = existing
		worker.FirstName, worker.LastName, worker.Phone = in.FirstName, in.LastName, in.Phone
		return r.store.Workers().Save(ctx, worker)
	})
	if err != nil {
		return generic.Worker{}, err
	}
	return worker, nil
}

// Delete removes the worker together with all of their leaves.
func (r *Roster) Delete(ctx context.Context, id string) error {
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := r.store.Workers().Get(ctx, id); err != nil {
			return err
		}
		if err := r.store.Leaves().DeleteByWorker(ctx, id); err != nil {
			return err
		}
		if err := r.store.Workers().Delete(ctx, id); err != nil {
			return err
		}
		if _, err := r.store.Workers().Get(ctx, id); !generic.IsNotFound(err) {
			r.log.Error("worker still present after delete", "worker_id", id)
			return &generic.ConsistencyError{Entity: "worker", ID: id, Op: "delete"}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Info("worker deleted", "worker_id", id)
	return nil
}

func (r *Roster) Get(ctx context.Context, id string) (generic.Worker, error) {
	return r.store.Workers().Get(ctx, id)
}

// All returns every worker, NotFound when the roster is empty.
func (r *Roster) All(ctx context.Context) ([]generic.Worker, error) {
	workers, err := r.store.Workers().List(ctx)
	if err != nil {
		return nil, err
	}
	if len(workers) == 0 {
		return nil, generic.NotFound("workers", "")
	}
	return workers, nil
}

// Find filters by any of first name, last name and phone; NotFound when
// nothing matches.
func (r *Roster) Find(ctx context.Context, f generic.WorkerFilter) ([]generic.Worker, error) {
	workers, err := r.store.Workers().Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(workers) == 0 {
		return nil, generic.NotFound("workers", "matching filter")
	}
	return workers, nil
}
