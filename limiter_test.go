package bloghost

import (
	"testing"
	"time"
)

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("fourth request in the window should be denied")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other addresses have their own budget")
	}
}

func TestIPLimiterWindowSlides(t *testing.T) {
	l := NewIPLimiter(1, 50*time.Millisecond)
	defer l.Stop()

	if !l.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("second request should be denied")
	}
	time.Sleep(60 * time.Millisecond)
	if !l.Allow("1.2.3.4") {
		t.Error("budget should recover after the window passes")
	}
}
