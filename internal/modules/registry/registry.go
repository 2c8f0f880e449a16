// README: In-memory availability registry; authoritative live view of the fleet.
package registry

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

// TruckInfo is ephemeral: rebuilt from the last message per driver, never
// persisted. A process restart empties the registry and drivers re-register.
type TruckInfo struct {
	ID        types.ID `json:"id"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Available bool     `json:"available"`
	Plate     string   `json:"plate"`
}

// Broadcaster receives the full registry snapshot after every mutation.
// Snapshot-over-delta is deliberate: subscribers always reconcile from a
// complete, self-consistent view.
type Broadcaster interface {
	BroadcastSnapshot(trucks []TruckInfo)
}

// Registry is the single mutation entry point for live fleet state. All
// access goes through the mutex; there is no ambient global map.
type Registry struct {
	mu             sync.Mutex
	trucks         map[types.ID]TruckInfo
	bc             Broadcaster
	unknownUpdates int64
}

func New(bc Broadcaster) *Registry {
	return &Registry{trucks: make(map[types.ID]TruckInfo), bc: bc}
}

// Register upserts a driver's truck entry. Idempotent.
func (r *Registry) Register(id types.ID, loc types.Point, plate string, available bool) {
	r.mu.Lock()
	r.trucks[id] = TruckInfo{ID: id, Lat: loc.Lat, Lng: loc.Lng, Available: available, Plate: plate}
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.broadcast(snap)
}

// UpdateLocation moves a registered truck. An unknown driver is tolerated as
// a late join, not an error, but it is counted and logged so a client that
// never registered stays observable.
func (r *Registry) UpdateLocation(id types.ID, loc types.Point) {
	r.mu.Lock()
	t, ok := r.trucks[id]
	if !ok {
		r.unknownUpdates++
		n := r.unknownUpdates
		r.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"driver_id":       id,
			"unknown_updates": n,
		}).Warn("location update for unregistered driver ignored")
		return
	}
	t.Lat, t.Lng = loc.Lat, loc.Lng
	r.trucks[id] = t
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.broadcast(snap)
}

// SetAvailable flips the availability flag. Unknown drivers are ignored.
func (r *Registry) SetAvailable(id types.ID, available bool) {
	r.mu.Lock()
	t, ok := r.trucks[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	t.Available = available
	r.trucks[id] = t
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.broadcast(snap)
}

// Snapshot returns a copy of the full registry, ordered by driver id for a
// stable wire representation.
func (r *Registry) Snapshot() []TruckInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// UnknownUpdates reports how many location updates arrived for drivers that
// never registered.
func (r *Registry) UnknownUpdates() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unknownUpdates
}

func (r *Registry) snapshotLocked() []TruckInfo {
	out := make([]TruckInfo, 0, len(r.trucks))
	for _, t := range r.trucks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// broadcast runs after the mutation is applied to the map, never before.
func (r *Registry) broadcast(snap []TruckInfo) {
	if r.bc != nil {
		r.bc.BroadcastSnapshot(snap)
	}
}
