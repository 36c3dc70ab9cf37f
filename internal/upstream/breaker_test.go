package upstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leoprim/ranked-tracker-web/internal/config"
	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/sony/gobreaker"
)

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		Enabled:      true,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

func TestBreakerSource_TripsOnTransportFailures(t *testing.T) {
	src := &countingSource{err: &release.TransportError{Project: "o/r", StatusCode: 502, Err: errors.New("bad gateway")}}
	b := NewBreakerSource(src, testBreakerConfig(), nil)

	for i := 0; i < 3; i++ {
		_, err := b.ListReleases(context.Background(), "o/r", 10)
		if !release.IsTransport(err) {
			t.Fatalf("call %d: expected transport failure, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen.String() {
		t.Fatalf("expected breaker to be open, got %s", b.State())
	}

	_, err := b.ListReleases(context.Background(), "o/r", 10)
	if !release.IsTransport(err) {
		t.Errorf("open breaker should report a transport failure, got %v", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if n := src.calls.Load(); n != 3 {
		t.Errorf("open breaker must not call upstream, got %d calls", n)
	}
}

func TestBreakerSource_MalformedDoesNotTrip(t *testing.T) {
	src := &countingSource{err: &release.MalformedResponseError{Project: "o/r", Err: errors.New("bad json")}}
	b := NewBreakerSource(src, testBreakerConfig(), nil)

	for i := 0; i < 5; i++ {
		_, err := b.ListReleases(context.Background(), "o/r", 10)
		if !release.IsMalformed(err) {
			t.Fatalf("expected malformed response to pass through, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed.String() {
		t.Errorf("expected breaker to stay closed, got %s", b.State())
	}
}

func TestBreakerSource_PassesResults(t *testing.T) {
	src := &countingSource{releases: sampleReleases}
	b := NewBreakerSource(src, testBreakerConfig(), nil)

	rels, err := b.ListReleases(context.Background(), "o/r", 10)
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	if len(rels) != 1 || rels[0].Tag != "obs-plugin-v1.0" {
		t.Errorf("unexpected releases %+v", rels)
	}
}
