package economy

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// TicketID is the 128-bit identifier of a TransitTicket.
type TicketID [16]byte

func (id TicketID) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the "no ticket" sentinel.
func (id TicketID) IsZero() bool { return id == TicketID{} }

// ticketIDFromCounter derives a strictly-increasing TicketID from the
// manager's monotonic issue counter, placed in the low 8 bytes.
func ticketIDFromCounter(counter uint64) TicketID {
	var id TicketID
	binary.LittleEndian.PutUint64(id[0:8], counter)
	return id
}

// TransitTicket bundles a path of VTS allocations with validity and
// pricing, signed by the issuing edge.
type TransitTicket struct {
	TicketID    TicketID
	RobotID     uint64
	ZoneID      uint32
	Path        []spacetime.VtsID
	ValidFromNs uint64
	ValidToNs   uint64
	Priority    uint8
	PriceMilli  uint64
	Signature   [64]byte
}

// WithValidity returns a copy of t with explicit validity bounds.
func (t TransitTicket) WithValidity(validFromNs, validToNs uint64) TransitTicket {
	t.ValidFromNs = validFromNs
	t.ValidToNs = validToNs
	return t
}

// IsCurrent reports whether the ticket is valid at timestampNs (half-open:
// valid_from <= t < valid_to).
func (t TransitTicket) IsCurrent(timestampNs uint64) bool {
	return timestampNs >= t.ValidFromNs && timestampNs < t.ValidToNs
}

// IsExpired reports whether the ticket has lapsed at timestampNs.
func (t TransitTicket) IsExpired(timestampNs uint64) bool {
	return timestampNs >= t.ValidToNs
}

// TicketValidation is TicketManager.Validate's classification.
type TicketValidation int

const (
	TicketValid TicketValidation = iota
	TicketNotYetValid
	TicketExpiredResult
	TicketNotFound
)

func (v TicketValidation) String() string {
	switch v {
	case TicketValid:
		return "Valid"
	case TicketNotYetValid:
		return "NotYetValid"
	case TicketExpiredResult:
		return "Expired"
	case TicketNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// TicketManager owns the lifecycle of one zone's transit tickets.
type TicketManager struct {
	zoneID        uint32
	activeTickets map[TicketID]TransitTicket
	expiredIDs    []TicketID
	issueCounter  uint64
}

func NewTicketManager(zoneID uint32) *TicketManager {
	return &TicketManager{zoneID: zoneID, activeTickets: make(map[TicketID]TransitTicket)}
}

// IssueTicket mints a new ticket for robotID over path, valid in
// [validFromNs, validToNs).
func (m *TicketManager) IssueTicket(robotID uint64, path []spacetime.VtsID, validFromNs, validToNs uint64) TransitTicket {
	m.issueCounter++
	id := ticketIDFromCounter(m.issueCounter)
	ticket := TransitTicket{TicketID: id, RobotID: robotID, ZoneID: m.zoneID, Path: path}.WithValidity(validFromNs, validToNs)
	m.activeTickets[id] = ticket
	return ticket
}

// Validate classifies ticketID's status at currentTimeNs.
func (m *TicketManager) Validate(ticketID TicketID, currentTimeNs uint64) TicketValidation {
	ticket, ok := m.activeTickets[ticketID]
	if !ok {
		return TicketNotFound
	}
	switch {
	case currentTimeNs < ticket.ValidFromNs:
		return TicketNotYetValid
	case currentTimeNs >= ticket.ValidToNs:
		return TicketExpiredResult
	default:
		return TicketValid
	}
}

func (m *TicketManager) GetTicket(ticketID TicketID) (TransitTicket, bool) {
	t, ok := m.activeTickets[ticketID]
	return t, ok
}

func (m *TicketManager) GetRobotTickets(robotID uint64) []TransitTicket {
	var out []TransitTicket
	for _, t := range m.activeTickets {
		if t.RobotID == robotID {
			out = append(out, t)
		}
	}
	return out
}

// CleanupExpired moves tickets expired as of currentTimeNs into the
// audit list, returning the count removed.
func (m *TicketManager) CleanupExpired(currentTimeNs uint64) int {
	var expired []TicketID
	for id, t := range m.activeTickets {
		if currentTimeNs >= t.ValidToNs {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.activeTickets, id)
		m.expiredIDs = append(m.expiredIDs, id)
	}
	return len(expired)
}

// Revoke deactivates ticketID immediately, returning false if it was not active.
func (m *TicketManager) Revoke(ticketID TicketID) bool {
	if _, ok := m.activeTickets[ticketID]; !ok {
		return false
	}
	delete(m.activeTickets, ticketID)
	m.expiredIDs = append(m.expiredIDs, ticketID)
	return true
}

func (m *TicketManager) ActiveCount() int    { return len(m.activeTickets) }
func (m *TicketManager) TotalIssued() uint64 { return m.issueCounter }
func (m *TicketManager) ZoneID() uint32      { return m.zoneID }
