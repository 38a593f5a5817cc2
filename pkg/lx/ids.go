package lx

import (
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// idSequence is mixed into every newID so that two IDs minted within one
// process differ in their hash input even if uuid's own entropy source
// ever repeats.
var idSequence uint64

// newID mints an opaque, process-unique 128-bit hex identifier. It mixes a
// random UUID with a monotonic sequence number through BLAKE2b so that two
// IDs minted back-to-back are still unpredictable and collision-free, the
// property spec §4.1 asks of new_id().
func newID() string {
	seq := atomic.AddUint64(&idSequence, 1)
	u := uuid.New()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)

	mix := make([]byte, 0, len(u)+len(buf))
	mix = append(mix, u[:]...)
	mix = append(mix, buf[:]...)

	sum := blake2b.Sum256(mix)
	return hex.EncodeToString(sum[:16])
}

func newOrderID() OrderID { return OrderID(newID()) }
func newTradeID() TradeID { return TradeID(newID()) }

// clock assigns strictly increasing timestamps to events on a single book.
// Wall-clock resolution can be coarse enough that two placements serialized
// on the same write section land on the same time.Time value; clock falls
// back to a logical nanosecond bump to keep the sequence strictly
// increasing, which is what the price-time comparator's tie-break depends
// on (spec §4.1, §5).
type clock struct {
	last atomic.Int64
}

func (c *clock) now() time.Time {
	for {
		prev := c.last.Load()
		next := time.Now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return time.Unix(0, next).UTC()
		}
	}
}
