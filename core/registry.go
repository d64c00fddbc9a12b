package core

import (
	"strconv"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/atomic"
)

// registry owns the actor cells. PIDs are indices into it, never owning
// pointers, which keeps actor graphs free of ownership cycles: when an
// actor terminates the registry entry goes away and every PID held
// elsewhere simply stops resolving.
type registry struct {
	cells cmap.ConcurrentMap[string, *cell]
	names cmap.ConcurrentMap[string, PID]
	seq   *atomic.Uint64
}

func newRegistry() *registry {
	return &registry{
		cells: cmap.New[*cell](),
		names: cmap.New[PID](),
		seq:   atomic.NewUint64(0),
	}
}

// nextID allocates a fresh process-unique actor ID.
func (r *registry) nextID() uint64 {
	return r.seq.Inc()
}

func cellKey(id uint64) string {
	return strconv.FormatUint(id, 16)
}

// claimName reserves name for pid. Reports false when taken.
func (r *registry) claimName(name string, pid PID) bool {
	return r.names.SetIfAbsent(name, pid)
}

// insert registers a cell under its PID.
func (r *registry) insert(c *cell) {
	r.cells.Set(cellKey(c.pid.id), c)
}

// get resolves a PID to its cell.
func (r *registry) get(pid PID) (*cell, bool) {
	return r.cells.Get(cellKey(pid.id))
}

// lookupName resolves a registered actor name.
func (r *registry) lookupName(name string) (PID, bool) {
	return r.names.Get(name)
}

// remove drops a cell and its name reservation.
func (r *registry) remove(c *cell) {
	r.cells.Remove(cellKey(c.pid.id))
	r.releaseName(c.pid)
}

// releaseName frees a path reservation still held by pid. A no-op when a
// replacement actor has already claimed the path for itself.
func (r *registry) releaseName(pid PID) {
	if cur, ok := r.names.Get(pid.path); ok && cur.Equal(pid) {
		r.names.Remove(pid.path)
	}
}

// count returns the number of live actors.
func (r *registry) count() int {
	return r.cells.Count()
}

// each invokes fn for every live cell.
func (r *registry) each(fn func(*cell)) {
	for item := range r.cells.IterBuffered() {
		fn(item.Val)
	}
}
