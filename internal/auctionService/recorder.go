package auction

// Recorder receives ledger outcomes for monitoring
type Recorder interface {
	BidAccepted()
	BidRejected(err error)
	AuctionsClosed(n int)
}

type nopRecorder struct{}

func (nopRecorder) BidAccepted()       {}
func (nopRecorder) BidRejected(error)  {}
func (nopRecorder) AuctionsClosed(int) {}
