package spacetime

import (
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"math/big"
)

// VTS is a Voxel-Time-Slot: an exclusive-use reservation unit over a single
// voxel for a half-open time interval [TStartNs, TEndNs).
type VTS struct {
	VoxelID  uint64
	TStartNs uint64
	TEndNs   uint64
}

// NewVTS builds a VTS. Callers are expected to pass TStartNs <= TEndNs;
// Duration saturates at zero otherwise.
func NewVTS(voxelID, tStartNs, tEndNs uint64) VTS {
	return VTS{VoxelID: voxelID, TStartNs: tStartNs, TEndNs: tEndNs}
}

// Duration returns t_end - t_start, saturating at zero.
func (v VTS) Duration() uint64 {
	if v.TEndNs <= v.TStartNs {
		return 0
	}
	return v.TEndNs - v.TStartNs
}

// ContainsTime reports whether t falls in the half-open interval
// [TStartNs, TEndNs). TEndNs is excluded.
func (v VTS) ContainsTime(t uint64) bool {
	return t >= v.TStartNs && t < v.TEndNs
}

// ConflictsWith reports whether v and o reserve the same voxel during an
// overlapping time window: same voxel AND v.start < o.end AND o.start < v.end.
func (v VTS) ConflictsWith(o VTS) bool {
	return v.VoxelID == o.VoxelID && v.TStartNs < o.TEndNs && o.TStartNs < v.TEndNs
}

// VtsID is the 128-bit deterministic identity of a VTS within a zone,
// computed by FNV-1a-128 over the little-endian byte sequences of
// zone_id, voxel_id, t_start_ns, t_end_ns, in that order. This formula is
// bit-exact mandated (spec section 6) and must never change.
type VtsID [16]byte

// fnvOffset128 and fnvPrime128 are the FNV-1a-128 constants, held as
// math/big values since Go has no native 128-bit integer type.
var (
	fnvOffset128, _ = new(big.Int).SetString("6c62272e07bb014262b821756295c58d", 16)
	// FNV-1a-128 prime = 2^88 + 2^8 + 0x3b = 0x0000000001000000000000000000013B
	fnvPrime128 = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 88), big.NewInt(0x13B))
	mod128      = new(big.Int).Lsh(big.NewInt(1), 128)
)

// VtsIDFromComponents derives the deterministic VtsID for a VTS in a zone.
func VtsIDFromComponents(zoneID uint32, voxelID, tStartNs, tEndNs uint64) VtsID {
	buf := make([]byte, 0, 4+8+8+8)
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], zoneID)
	buf = append(buf, tmp4[:]...)

	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], voxelID)
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], tStartNs)
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], tEndNs)
	buf = append(buf, tmp8[:]...)

	return fnv1a128(buf)
}

// fnv1a128 computes FNV-1a-128 over data, byte by byte: h = (h XOR byte) * prime (mod 2^128).
func fnv1a128(data []byte) VtsID {
	h := new(big.Int).Set(fnvOffset128)
	for _, b := range data {
		h.Xor(h, big.NewInt(int64(b)))
		h.Mul(h, fnvPrime128)
		h.Mod(h, mod128)
	}
	var id VtsID
	h.FillBytes(id[:]) // big-endian, zero-padded to 16 bytes
	return id
}

// String renders the id as lowercase hex, for logs only.
func (id VtsID) String() string {
	return hex.EncodeToString(id[:])
}

// RobotIDFromPublicKey derives a robot's identity from its 32-byte Ed25519
// public key using FNV-1a-64, per spec section 6. The same public key
// always yields the same robot id.
func RobotIDFromPublicKey(pubKey [32]byte) uint64 {
	h := fnv.New64a()
	h.Write(pubKey[:])
	return h.Sum64()
}
