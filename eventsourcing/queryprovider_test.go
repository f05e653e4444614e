package eventsourcing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/io-da/query"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

type seatCountQuery struct {
	ShowID string
}

func (q seatCountQuery) ID() []byte { return []byte(q.ShowID) }

type seatCountModel struct {
	Available int
}

type seatCountHandler struct{}

func (seatCountHandler) HandleQuery(ctx context.Context, qry query.Query) (cqrs.ReadModel, error) {
	return seatCountModel{Available: 42}, nil
}

func TestQueryProvider_UnknownQuery(t *testing.T) {
	provider := cqrs.NewQueryProvider()

	err := provider.Handle(context.Background(), seatCountQuery{ShowID: "s1"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown query type") {
		t.Fatalf("expected unknown query error, got %v", err)
	}
}

func TestQueryProvider_DuplicateRegistrationPanics(t *testing.T) {
	provider := cqrs.NewQueryProvider()
	provider.RegisterHandler("seatCountQuery", seatCountHandler{})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate handler")
		}
	}()
	provider.RegisterHandler("seatCountQuery", seatCountHandler{})
}

func TestQueryIteratorProvider_UnknownQuery(t *testing.T) {
	provider := cqrs.NewQueryIteratorProvider()

	err := provider.Handle(context.Background(), seatCountQuery{ShowID: "s1"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown query type") {
		t.Fatalf("expected unknown query error, got %v", err)
	}
}
