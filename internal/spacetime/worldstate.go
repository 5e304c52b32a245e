package spacetime

import (
	"encoding/binary"
	"hash"
	"math"

	"golang.org/x/crypto/blake2b"
)

// RobotState is a per-robot snapshot carried inside a WorldState. It is a
// carrying structure only; no cross-robot invariants are enforced here.
type RobotState struct {
	ID              uint64
	Position        Position
	Velocity        Velocity
	Acceleration    Acceleration
	HeadingRad      float32
	AngularVelocity float32
	TimestampNs     uint64
	ZoneID          uint32
	HeldTicketID    [16]byte // zero value == no ticket held
	TicketPhase     float32  // in [0, 1]
	BatteryPct      float32
	ControllerTempC float32
}

// DynamicObstacle is a moving obstacle tracked in a WorldState.
type DynamicObstacle struct {
	ID             uint64
	Position       Position
	Velocity       Velocity
	BoundingRadius float32
}

// VtsHold records one VTS a robot currently holds as part of its granted path.
type VtsHold struct {
	VtsID    VtsID
	VoxelID  uint64
	TStartNs uint64
	TEndNs   uint64
	TicketID [16]byte
}

// WorldState is the per-zone authoritative snapshot used for rollback and
// for the global aggregator.
type WorldState struct {
	ZoneID           uint32
	Tick             uint64
	TimestampNs      uint64
	Robots           []RobotState
	StaticObstacles  []Position
	DynamicObstacles []DynamicObstacle
	HeldVts          map[uint64][]VtsHold // robot_id -> held VTS
}

// NewWorldState builds an empty WorldState for a zone.
func NewWorldState(zoneID uint32) WorldState {
	return WorldState{ZoneID: zoneID, HeldVts: make(map[uint64][]VtsHold)}
}

// WithTick returns a copy of w advanced to the given tick and timestamp.
func (w WorldState) WithTick(tick, timestampNs uint64) WorldState {
	w.Tick = tick
	w.TimestampNs = timestampNs
	return w
}

// ComputeHash returns a deterministic 32-byte digest of w using blake2b-256.
//
// Per SPEC_FULL.md's resolution of the WorldState-hash open question, the
// digest is content-addressed: it covers zone_id, tick, and every robot's
// id/position/velocity, not merely the robot count. Two world states that
// differ only in robot positions must not collide.
func (w WorldState) ComputeHash() [32]byte {
	h, _ := blake2b.New256(nil)

	var buf8 [8]byte
	binary.LittleEndian.PutUint64(buf8[:], uint64(w.ZoneID))
	h.Write(buf8[:])
	binary.LittleEndian.PutUint64(buf8[:], w.Tick)
	h.Write(buf8[:])
	binary.LittleEndian.PutUint64(buf8[:], uint64(len(w.Robots)))
	h.Write(buf8[:])

	for _, r := range w.Robots {
		binary.LittleEndian.PutUint64(buf8[:], r.ID)
		h.Write(buf8[:])
		writeFloat32(h, r.Position.X)
		writeFloat32(h, r.Position.Y)
		writeFloat32(h, r.Position.Z)
		writeFloat32(h, r.Velocity.X)
		writeFloat32(h, r.Velocity.Y)
		writeFloat32(h, r.Velocity.Z)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeFloat32(h hash.Hash, f float32) {
	var buf4 [4]byte
	binary.LittleEndian.PutUint32(buf4[:], math.Float32bits(f))
	h.Write(buf4[:])
}
