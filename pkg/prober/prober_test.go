package prober

import (
	"testing"
	"time"

	"dualtor-linkmgrd/pkg/model"
)

func TestStubFeedDeliversVerdict(t *testing.T) {
	s := NewStub()
	s.Feed(model.VerdictSelfActive)
	select {
	case v := <-s.VerdictCh():
		if v != model.VerdictSelfActive {
			t.Fatalf("got %v, want SelfActive", v)
		}
	default:
		t.Fatalf("expected a buffered verdict")
	}
}

func TestStubSuspendDropsFeed(t *testing.T) {
	s := NewStub()
	s.Suspend(time.Minute)
	if !s.IsSuspended() {
		t.Fatalf("expected suspended")
	}
	s.Feed(model.VerdictSelfActive)
	select {
	case v := <-s.VerdictCh():
		t.Fatalf("expected no verdict while suspended, got %v", v)
	default:
	}
}

func TestStubRestartResumesFeed(t *testing.T) {
	s := NewStub()
	s.Suspend(time.Minute)
	s.Restart()
	if s.IsSuspended() {
		t.Fatalf("expected not suspended after Restart")
	}
	s.Feed(model.VerdictSelfActive)
	select {
	case v := <-s.VerdictCh():
		if v != model.VerdictSelfActive {
			t.Fatalf("got %v", v)
		}
	default:
		t.Fatalf("expected verdict to be delivered after restart")
	}
}

func TestStubShutdownDropsFeedPermanently(t *testing.T) {
	s := NewStub()
	s.Shutdown()
	s.Feed(model.VerdictSelfActive)
	select {
	case v := <-s.VerdictCh():
		t.Fatalf("expected no verdict after shutdown, got %v", v)
	default:
	}
}

func TestIPv6SupportedStub(t *testing.T) {
	if IPv6Supported() {
		t.Fatalf("IPv6Supported must remain a stub contract (false) per the open question in spec §9")
	}
}
