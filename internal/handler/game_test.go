package handler

import (
	"testing"
)

func validReq() gameReq {
	return gameReq{
		DateTime:   "2025-06-01T18:00:00Z",
		MaxPlayers: 8,
		Address:    "123 Court St",
		City:       "Brooklyn",
		State:      "NY",
		ZipCode:    "11201",
	}
}

func TestGameReqValidate(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*gameReq)
		wantFail bool
	}{
		{"valid", func(r *gameReq) {}, false},
		{"zip+4 accepted", func(r *gameReq) { r.ZipCode = "11201-1234" }, false},
		{"min players", func(r *gameReq) { r.MaxPlayers = 2 }, false},
		{"max players", func(r *gameReq) { r.MaxPlayers = 12 }, false},
		{"bad datetime", func(r *gameReq) { r.DateTime = "tomorrow at 6" }, true},
		{"players too low", func(r *gameReq) { r.MaxPlayers = 1 }, true},
		{"players too high", func(r *gameReq) { r.MaxPlayers = 13 }, true},
		{"empty address", func(r *gameReq) { r.Address = "  " }, true},
		{"empty city", func(r *gameReq) { r.City = "" }, true},
		{"empty state", func(r *gameReq) { r.State = "" }, true},
		{"short zip", func(r *gameReq) { r.ZipCode = "1120" }, true},
		{"alpha zip", func(r *gameReq) { r.ZipCode = "1120a" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validReq()
			tc.mutate(&req)
			in, reason := req.validate()
			if tc.wantFail {
				if reason == "" {
					t.Fatalf("expected a validation failure, got %+v", in)
				}
				return
			}
			if reason != "" {
				t.Fatalf("unexpected failure: %s", reason)
			}
			if in.DateTime.IsZero() {
				t.Fatal("parsed datetime is zero")
			}
		})
	}
}
