package economy

import (
	"sort"

	"github.com/ocx/edge-coordinator/internal/codes"
	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// AuctionConfig bounds a VickreyAuction's accepted bids and reserve price.
type AuctionConfig struct {
	MinBid       uint64
	ReservePrice uint64
	DeadlineNs   uint64
	MaxBids      int
}

// DefaultAuctionConfig mirrors sap-economy's reference defaults.
func DefaultAuctionConfig() AuctionConfig {
	return AuctionConfig{MinBid: 100, ReservePrice: 50, MaxBids: 1000}
}

// BidEntry is a revealed bid queued for settlement on a given VTS.
type BidEntry struct {
	RobotID     uint64
	BidAmount   uint64
	TimestampNs uint64
	VtsID       spacetime.VtsID
}

// AuctionResult is a settled second-price auction outcome.
type AuctionResult struct {
	WinnerID      uint64
	WinningPrice  uint64
	OriginalBid   uint64
	VtsID         spacetime.VtsID
	CompletedNs   uint64
}

// VickreyAuction runs a second-price sealed-bid auction per VTS slot.
// Bids must already be revealed (see Bid.Reveal) before submission here.
type VickreyAuction struct {
	config  AuctionConfig
	bids    map[spacetime.VtsID][]BidEntry
	results []AuctionResult
}

func NewVickreyAuction(config AuctionConfig) *VickreyAuction {
	return &VickreyAuction{config: config, bids: make(map[spacetime.VtsID][]BidEntry)}
}

func NewDefaultVickreyAuction() *VickreyAuction {
	return NewVickreyAuction(DefaultAuctionConfig())
}

// SubmitBid enqueues a revealed bid entry for its VTS slot.
func (auc *VickreyAuction) SubmitBid(bid BidEntry) error {
	if bid.BidAmount < auc.config.MinBid {
		return codes.New(codes.AuctionFailed, "bid amount below minimum")
	}

	entries := auc.bids[bid.VtsID]
	if len(entries) >= auc.config.MaxBids {
		return codes.New(codes.AuctionFailed, "too many bids for this vts")
	}
	for _, e := range entries {
		if e.RobotID == bid.RobotID {
			return codes.New(codes.AuctionFailed, "duplicate bid from this robot")
		}
	}

	auc.bids[bid.VtsID] = append(entries, bid)
	return nil
}

// Settle resolves the auction for vtsID: the highest bidder wins at the
// second-highest price, or at the reserve price if only one bid exists.
func (auc *VickreyAuction) Settle(vtsID spacetime.VtsID, currentTimeNs uint64) (AuctionResult, bool) {
	entries, ok := auc.bids[vtsID]
	if !ok || len(entries) == 0 {
		return AuctionResult{}, false
	}

	sorted := make([]BidEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].BidAmount > sorted[j].BidAmount })

	winner := sorted[0]
	secondPrice := auc.config.ReservePrice
	if len(sorted) > 1 {
		secondPrice = sorted[1].BidAmount
	}

	result := AuctionResult{
		WinnerID:     winner.RobotID,
		WinningPrice: secondPrice,
		OriginalBid:  winner.BidAmount,
		VtsID:        vtsID,
		CompletedNs:  currentTimeNs,
	}
	auc.results = append(auc.results, result)
	delete(auc.bids, vtsID)
	return result, true
}

// SettleAll settles every pending VTS with at least one bid.
func (auc *VickreyAuction) SettleAll(currentTimeNs uint64) []AuctionResult {
	var ids []spacetime.VtsID
	for id := range auc.bids {
		ids = append(ids, id)
	}
	var results []AuctionResult
	for _, id := range ids {
		if r, ok := auc.Settle(id, currentTimeNs); ok {
			results = append(results, r)
		}
	}
	return results
}

func (auc *VickreyAuction) GetBids(vtsID spacetime.VtsID) []BidEntry { return auc.bids[vtsID] }

func (auc *VickreyAuction) TotalBidCount() int {
	total := 0
	for _, entries := range auc.bids {
		total += len(entries)
	}
	return total
}

// RecentResults returns up to count most recently settled results.
func (auc *VickreyAuction) RecentResults(count int) []AuctionResult {
	start := len(auc.results) - count
	if start < 0 {
		start = 0
	}
	out := make([]AuctionResult, len(auc.results[start:]))
	copy(out, auc.results[start:])
	return out
}
