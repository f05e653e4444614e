package eventsourcing

import (
	"context"
	"errors"
	"testing"
)

type seatStatusQuery struct {
	ShowID     string
	SeatNumber string
}

func (q seatStatusQuery) ID() []byte { return []byte(q.ShowID + "/" + q.SeatNumber) }

type seatStatusResult struct {
	Status string
}

type showTitlesQuery struct {
	Venue string
}

func (q showTitlesQuery) ID() []byte { return []byte(q.Venue) }

type showTitlesResult struct {
	Titles []string
}

func TestNewQueryHandlerFunc(t *testing.T) {
	type ctxKey string

	tests := []struct {
		name       string
		ctx        context.Context
		query      seatStatusQuery
		handler    func(ctx context.Context, q seatStatusQuery) (*seatStatusResult, error)
		wantStatus string
		wantErr    string
		wantNil    bool
	}{
		{
			name:  "returns result",
			ctx:   context.Background(),
			query: seatStatusQuery{ShowID: "show-1", SeatNumber: "12"},
			handler: func(ctx context.Context, q seatStatusQuery) (*seatStatusResult, error) {
				return &seatStatusResult{Status: "AVAILABLE"}, nil
			},
			wantStatus: "AVAILABLE",
		},
		{
			name:  "propagates error",
			ctx:   context.Background(),
			query: seatStatusQuery{ShowID: "missing"},
			handler: func(ctx context.Context, q seatStatusQuery) (*seatStatusResult, error) {
				return nil, errors.New("show not found")
			},
			wantErr: "show not found",
			wantNil: true,
		},
		{
			name:  "receives caller context",
			ctx:   context.WithValue(context.Background(), ctxKey("tenant"), "main-hall"),
			query: seatStatusQuery{ShowID: "show-1", SeatNumber: "1"},
			handler: func(ctx context.Context, q seatStatusQuery) (*seatStatusResult, error) {
				return &seatStatusResult{Status: ctx.Value(ctxKey("tenant")).(string)}, nil
			},
			wantStatus: "main-hall",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewQueryHandlerFunc(tt.handler)
			result, err := h.HandleQuery(tt.ctx, tt.query)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("error = %q, want %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantNil {
				if result != nil {
					t.Errorf("expected nil result, got %+v", result)
				}
				return
			}

			if result == nil {
				t.Fatal("expected non-nil result")
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", result.Status, tt.wantStatus)
			}
		})
	}
}
