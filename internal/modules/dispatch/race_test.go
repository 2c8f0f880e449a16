// README: Concurrency tests for dispatch transitions (run with -race).
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

func TestConcurrentAcceptSameRequest(t *testing.T) {
	f := newFixture()
	f.approveSender("s1")
	f.approveDriver("d0")
	r := mustCreate(t, f, "s1", "d0")

	const attempts = 8
	for i := 0; i < attempts; i++ {
		f.approveDriver(types.ID(fmt.Sprintf("d%d", i)))
	}

	errs := make(chan error, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		driverID := types.ID(fmt.Sprintf("d%d", i))
		wg.Add(1)
		go func(did types.ID) {
			defer wg.Done()
			<-start
			_, err := f.svc.Accept(context.Background(), r.ID, did)
			errs <- err
		}(driverID)
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	got, err := f.svc.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("unexpected final status: %s", got.Status)
	}
	if got.DriverID == "" {
		t.Fatal("expected driver to be recorded")
	}

	// Losing drivers must not be left claimed.
	busy := 0
	for i := 0; i < attempts; i++ {
		if f.dir.isBusy(types.ID(fmt.Sprintf("d%d", i))) {
			busy++
		}
	}
	if busy != 1 {
		t.Fatalf("expected exactly 1 busy driver, got %d", busy)
	}
}

// TestConcurrentAcceptOneDriverTwoRequests exercises the capacity invariant:
// two pending requests, one driver, exactly one may be accepted.
func TestConcurrentAcceptOneDriverTwoRequests(t *testing.T) {
	f := newFixture()
	f.approveSender("s1")
	f.approveDriver("d1")
	r1 := mustCreate(t, f, "s1", "d1")
	r2 := mustCreate(t, f, "s1", "d1")

	errs := make(chan error, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for _, id := range []types.ID{r1.ID, r2.ID} {
		wg.Add(1)
		go func(reqID types.ID) {
			defer wg.Done()
			<-start
			_, err := f.svc.Accept(context.Background(), reqID, "d1")
			errs <- err
		}(id)
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	accepted := 0
	for _, id := range []types.ID{r1.ID, r2.ID} {
		r, err := f.svc.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get request: %v", err)
		}
		if r.Status == StatusAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly 1 accepted request for the driver, got %d", accepted)
	}
}

func TestConcurrentAcceptVsCancel(t *testing.T) {
	f := newFixture()
	f.approveSender("s1")
	f.approveDriver("d1")
	r := mustCreate(t, f, "s1", "d1")

	errs := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.svc.Accept(context.Background(), r.ID, "d1")
		errs <- err
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.svc.Cancel(context.Background(), r.ID, "s1")
		errs <- err
	}()

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Accept-then-cancel can both succeed; cancel-then-accept leaves one winner.
	if success < 1 || success > 2 {
		t.Fatalf("expected 1 or 2 successes, got %d", success)
	}

	got, err := f.svc.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if success == 2 && got.Status != StatusCancelled {
		t.Fatalf("expected cancelled after accept+cancel, got %s", got.Status)
	}
	if success == 1 && got.Status != StatusAccepted && got.Status != StatusCancelled {
		t.Fatalf("unexpected final status: %s", got.Status)
	}
}
