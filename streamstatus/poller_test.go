package streamstatus_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/store"
	"github.com/streamclipper/streamclipper/streamstatus"
)

func TestCheckLiveAndOffline(t *testing.T) {
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer live.Close()
	offline := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer offline.Close()

	p := streamstatus.New(store.NewMemory(), streamstatus.Config{})

	got, err := p.Check(context.Background(), live.URL)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !got.Live {
		t.Fatal("expected live for 200 response")
	}

	got, err = p.Check(context.Background(), offline.URL)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got.Live {
		t.Fatal("expected offline for 404 response")
	}
}

func TestCheckUnreachableReadsOffline(t *testing.T) {
	p := streamstatus.New(store.NewMemory(), streamstatus.Config{Timeout: 100 * time.Millisecond})
	got, err := p.Check(context.Background(), "http://127.0.0.1:1/stream")
	if err != nil {
		t.Fatalf("unreachable origins are offline, not errors: %v", err)
	}
	if got.Live {
		t.Fatal("expected offline")
	}
}

func TestCheckRequiresURL(t *testing.T) {
	p := streamstatus.New(store.NewMemory(), streamstatus.Config{})
	if _, err := p.Check(context.Background(), ""); apperrors.CodeOf(err) != apperrors.ErrCodeMissingField {
		t.Fatalf("expected MISSING_FIELD, got %v", err)
	}
}

func TestRefreshProbesHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD probe, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := store.NewMemory()
	if err := st.TouchHistory(srv.URL+"/a", "A"); err != nil {
		t.Fatal(err)
	}
	if err := st.TouchHistory(srv.URL+"/b", "B"); err != nil {
		t.Fatal(err)
	}

	p := streamstatus.New(st, streamstatus.Config{})
	statuses := p.Refresh(context.Background())
	if len(statuses) != 2 {
		t.Fatalf("expected both history URLs probed, got %+v", statuses)
	}
	for _, s := range statuses {
		if !s.Live {
			t.Fatalf("expected live, got %+v", s)
		}
	}
	if len(p.Live()) != 2 {
		t.Fatalf("expected two live entries, got %+v", p.Live())
	}
}

func TestStartStop(t *testing.T) {
	st := store.NewMemory()
	p := streamstatus.New(st, streamstatus.Config{Interval: time.Hour})
	p.Start()
	p.Stop() // must not hang
}
