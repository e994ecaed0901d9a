package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgerd/internal/core/domain"
	"github.com/yndnr/ledgerd/internal/core/service"
	"github.com/yndnr/ledgerd/internal/storage"
	"github.com/yndnr/ledgerd/internal/storage/memory"
)

// AccountCounts defines the ledger sizes for full benchmark runs.
var AccountCounts = []int{1000, 10000, 50000, 100000}

// SmallAccountCounts for quick benchmarks.
var SmallAccountCounts = []int{100, 1000, 10000}

var (
	hundred = decimal.NewFromInt(100)
	oneCent = decimal.New(1, -2)
	rate    = decimal.New(2, -2)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLedger returns a ledger writing through to an in-memory store.
func newLedger() *service.Ledger {
	cache := storage.NewSynchronizer(memory.New(), 0, quietLogger())
	return service.NewLedger(cache, quietLogger())
}

// accountSpec alternates SAVINGS and CHECKING accounts.
func accountSpec(number int64) domain.Spec {
	s := domain.Spec{
		Number:     number,
		HolderName: fmt.Sprintf("holder-%d", number),
		Balance:    hundred,
	}
	if number%2 == 0 {
		s.Kind = domain.KindSavings
		s.InterestRate = rate
	} else {
		s.Kind = domain.KindChecking
		s.OverdraftLimit = hundred
	}
	return s
}

// prefillLedger creates accounts 1..count.
func prefillLedger(b *testing.B, ctx context.Context, ledger *service.Ledger, count int) {
	b.Helper()
	for i := 1; i <= count; i++ {
		if _, err := ledger.Create(ctx, accountSpec(int64(i))); err != nil {
			b.Fatalf("Create(%d): %v", i, err)
		}
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithAccountCounts runs a benchmark function with various ledger sizes.
func runWithAccountCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("accounts_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
