package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/io-da/query"
	"github.com/sirupsen/logrus"

	"github.com/terraskye/cinema-saga/cinema"
	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	busmemory "github.com/terraskye/cinema-saga/eventsourcing/eventbus/memory"
	"github.com/terraskye/cinema-saga/eventsourcing/eventstore/memory"
	"github.com/terraskye/cinema-saga/projection"
	"github.com/terraskye/cinema-saga/reservation"
	"github.com/terraskye/cinema-saga/wallet"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := memory.NewMemoryStore(4096)
	commandBus := cqrs.NewCommandBus(16, 4)
	eventBus := busmemory.NewEventBus(64)
	t.Cleanup(commandBus.Stop)
	t.Cleanup(func() { eventBus.Close() })
	t.Cleanup(func() { store.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	go func() {
		for env := range store.Events() {
			eventBus.Dispatch(env)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	shows := cinema.NewService(store, commandBus, logger)
	wallets := wallet.NewService(store, commandBus, logger)

	showsByReservation := projection.NewShowsByReservation()
	if err := showsByReservation.Subscribe(ctx, eventBus, slogger); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	provider := cqrs.NewQueryProvider()
	showsByReservation.RegisterProvider(provider)
	queries := query.NewBus()
	queries.Handlers(provider)
	t.Cleanup(queries.Shutdown)

	sagas := reservation.NewCoordinator(reservation.NewMemoryStore(), shows, wallets, logger, reservation.Config{
		MaxAttempts: 3,
		RetryDelay:  5 * time.Millisecond,
		StepTimeout: 250 * time.Millisecond,
	})

	return NewServer(shows, wallets, sagas, queries, logger)
}

func (s *Server) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echoContentType, echoJSON)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSON        = "application/json"
)

func TestShowEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, http.MethodPost, "/cinema-show/s1", `{"title":"Dune","maxSeats":5}`); rec.Code != http.StatusCreated {
		t.Fatalf("create show: %d %s", rec.Code, rec.Body)
	}
	if rec := s.do(t, http.MethodPost, "/cinema-show/s1", `{"title":"Dune","maxSeats":5}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate show: %d, want 409", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/cinema-show/s2", `{"title":"Dune","maxSeats":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("zero seats: %d, want 400", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/cinema-show/s1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get show: %d %s", rec.Code, rec.Body)
	}
	var show struct {
		ID    string `json:"id"`
		Seats []struct {
			Number int    `json:"number"`
			Status string `json:"status"`
		} `json:"seats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &show); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	if show.ID != "s1" || len(show.Seats) != 5 {
		t.Errorf("show = %+v", show)
	}

	if rec := s.do(t, http.MethodGet, "/cinema-show/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing show: %d, want 404", rec.Code)
	}
}

func TestReservationLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/cinema-show/s1", `{"title":"Dune","maxSeats":5}`)

	if rec := s.do(t, http.MethodPatch, "/cinema-show/s1/reserve", `{"walletId":"w1","reservationId":"r1","seatNumber":2}`); rec.Code != http.StatusOK {
		t.Fatalf("reserve: %d %s", rec.Code, rec.Body)
	}
	if rec := s.do(t, http.MethodGet, "/cinema-show/s1/seat/2", ""); !strings.Contains(rec.Body.String(), "RESERVED") {
		t.Errorf("seat status: %s", rec.Body)
	}
	if rec := s.do(t, http.MethodPatch, "/cinema-show/s1/reserve", `{"walletId":"w2","reservationId":"r2","seatNumber":2}`); rec.Code != http.StatusConflict {
		t.Errorf("reserve occupied seat: %d, want 409", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/cinema-show/s1/seat/99", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown seat: %d, want 404", rec.Code)
	}

	if rec := s.do(t, http.MethodPatch, "/cinema-show/s1/confirm", `{"reservationId":"r1"}`); rec.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body)
	}
	// cancelling a confirmed reservation reports success without releasing
	if rec := s.do(t, http.MethodPatch, "/cinema-show/s1/cancel", `{"reservationId":"r1"}`); rec.Code != http.StatusOK {
		t.Errorf("cancel confirmed: %d, want 200", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/cinema-show/s1/seat/2", ""); !strings.Contains(rec.Body.String(), "PAID") {
		t.Errorf("seat status after cancel of confirmed: %s", rec.Body)
	}
}

func TestWalletEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, http.MethodPost, "/wallet/w1", `{"initialAmount":100}`); rec.Code != http.StatusCreated {
		t.Fatalf("create wallet: %d %s", rec.Code, rec.Body)
	}
	if rec := s.do(t, http.MethodPost, "/wallet/w1", `{"initialAmount":100}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate wallet: %d, want 409", rec.Code)
	}

	if rec := s.do(t, http.MethodPatch, "/wallet/w1/charge", `{"amount":40,"expenseId":"e1","commandId":"c1"}`); rec.Code != http.StatusOK {
		t.Fatalf("charge: %d %s", rec.Code, rec.Body)
	}
	// insufficient funds is a definitive rejection
	if rec := s.do(t, http.MethodPatch, "/wallet/w1/charge", `{"amount":500,"expenseId":"e2","commandId":"c2"}`); rec.Code != http.StatusConflict {
		t.Errorf("rejected charge: %d, want 409", rec.Code)
	}
	if rec := s.do(t, http.MethodPatch, "/wallet/w1/deposit", `{"amount":0,"commandId":"d1"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("zero deposit: %d, want 400", rec.Code)
	}
	if rec := s.do(t, http.MethodPatch, "/wallet/w1/refund", `{"expenseId":"e1","commandId":"r1"}`); rec.Code != http.StatusOK {
		t.Errorf("refund: %d %s", rec.Code, rec.Body)
	}

	rec := s.do(t, http.MethodGet, "/wallet/w1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get wallet: %d %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"balance":"100"`) && !strings.Contains(rec.Body.String(), `"balance":100`) {
		t.Errorf("balance body: %s", rec.Body)
	}

	if rec := s.do(t, http.MethodGet, "/wallet/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing wallet: %d, want 404", rec.Code)
	}
}

func TestSeatReservationSagaEndpoints(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/cinema-show/s1", `{"title":"Dune","maxSeats":20}`)
	s.do(t, http.MethodPost, "/wallet/w1", `{"initialAmount":200}`)

	rec := s.do(t, http.MethodPost, "/seat-reservation/r1", `{"showId":"s1","seatNumber":10,"walletId":"w1","price":100}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start saga: %d %s", rec.Code, rec.Body)
	}
	if rec := s.do(t, http.MethodPost, "/seat-reservation/r1", `{"showId":"s1","seatNumber":11,"walletId":"w1","price":100}`); rec.Code != http.StatusConflict {
		t.Errorf("restart saga: %d, want 409", rec.Code)
	}

	deadline := time.Now().Add(5 * time.Second)
	var status string
	for {
		rec := s.do(t, http.MethodGet, "/seat-reservation/r1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get saga: %d %s", rec.Code, rec.Body)
		}
		var view struct {
			Status string `json:"status"`
			ShowID string `json:"showId"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("decode saga view: %v", err)
		}
		status = view.Status
		if status == string(reservation.StatusCompleted) && view.ShowID == "s1" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("saga never completed with show lookup, last status %q showId %q", status, view.ShowID)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if rec := s.do(t, http.MethodGet, "/cinema-show/s1/seat/10", ""); !strings.Contains(rec.Body.String(), "PAID") {
		t.Errorf("seat status: %s", rec.Body)
	}
	if rec := s.do(t, http.MethodGet, "/wallet/w1", ""); !strings.Contains(rec.Body.String(), "100") {
		t.Errorf("wallet body: %s", rec.Body)
	}

	if rec := s.do(t, http.MethodGet, "/seat-reservation/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing saga: %d, want 404", rec.Code)
	}
}
