package play

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/players"
)

func TestMain(m *testing.M) {
	agent.SetSeedGeneratorFn(func() uint64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", agent.SeedGeneratorFn())

	os.Exit(m.Run())
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := New(func(token, config string) (agent.Agent, error) {
		return players.New(token, config)
	}, "minimax")

	base := &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	srv := httptest.NewServer(logger.NewMiddleware(base)(HTTPHandler(svc)))
	t.Cleanup(srv.Close)

	return srv
}

func do(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
	}

	return resp.StatusCode
}

func TestHumanFirstAgainstMinimax(t *testing.T) {
	srv := newServer(t)

	var snap Snapshot
	if code := do(t, "POST", srv.URL+"/games", `{"opponent":"minimax","humanFirst":true}`, &snap); code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}
	if snap.ID == "" || snap.Hash != "000000000" || snap.Turn != "X" || snap.Human != "X" || snap.AgentMove != nil {
		t.Fatalf("unexpected new game %+v", snap)
	}

	gameURL := srv.URL + "/games/" + snap.ID
	if code := do(t, "POST", gameURL+"/moves", `{"position":0}`, &snap); code != http.StatusOK {
		t.Fatalf("move status %d", code)
	}
	if snap.AgentMove == nil || *snap.AgentMove != 4 {
		t.Fatalf("minimax must answer a corner with the centre, got %+v", snap.AgentMove)
	}
	if snap.Cells[0] != "X" || snap.Cells[4] != "O" || snap.Turn != "X" {
		t.Fatalf("unexpected board %+v", snap)
	}

	var e errorResponse
	if code := do(t, "POST", gameURL+"/moves", `{"position":4}`, &e); code != http.StatusBadRequest || e.Error == "" {
		t.Fatalf("occupied cell status %d (%+v)", code, e)
	}
	if code := do(t, "POST", gameURL+"/moves", `{}`, nil); code != http.StatusBadRequest {
		t.Fatalf("missing position status %d", code)
	}

	// Play the remaining cells in order; minimax must never lose.
	for snap.State == "in progress" {
		pos := -1
		for i, c := range snap.Cells {
			if c == "" {
				pos = i
				break
			}
		}

		if code := do(t, "POST", gameURL+"/moves", fmt.Sprintf(`{"position":%d}`, pos), &snap); code != http.StatusOK {
			t.Fatalf("move %d status %d", pos, code)
		}
	}

	if snap.Winner == "X" || snap.Winner == "" {
		t.Fatalf("unexpected finish %+v", snap)
	}

	if code := do(t, "POST", gameURL+"/moves", `{"position":0}`, nil); code != http.StatusConflict {
		t.Fatalf("move after game over status %d", code)
	}

	var got Snapshot
	if code := do(t, "GET", gameURL, "", &got); code != http.StatusOK || got.Hash != snap.Hash || got.Winner != snap.Winner {
		t.Fatalf("get status %d: %+v", code, got)
	}
}

func TestAgentOpens(t *testing.T) {
	srv := newServer(t)

	var snap Snapshot
	if code := do(t, "POST", srv.URL+"/games", `{"opponent":"random"}`, &snap); code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}
	if snap.Human != "O" || snap.Agent != "X" || snap.AgentMove == nil || snap.Turn != "O" {
		t.Fatalf("agent did not open: %+v", snap)
	}
	if snap.Cells[*snap.AgentMove] != "X" {
		t.Fatalf("agent move %d not on board %v", *snap.AgentMove, snap.Cells)
	}
}

func TestDefaultOpponentAndErrors(t *testing.T) {
	srv := newServer(t)

	var snap Snapshot
	if code := do(t, "POST", srv.URL+"/games", `{"humanFirst":true}`, &snap); code != http.StatusCreated || snap.Opponent != "minimax" {
		t.Fatalf("default opponent: status %d %+v", code, snap)
	}

	if code := do(t, "POST", srv.URL+"/games", `{"opponent":"alphazero"}`, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown opponent status %d", code)
	}
	if code := do(t, "POST", srv.URL+"/games", `not json`, nil); code != http.StatusBadRequest {
		t.Fatalf("bad body status %d", code)
	}
	if code := do(t, "GET", srv.URL+"/games/nope", "", nil); code != http.StatusNotFound {
		t.Fatalf("unknown game status %d", code)
	}

	if code := do(t, "DELETE", srv.URL+"/games/"+snap.ID, "", nil); code != http.StatusNoContent {
		t.Fatalf("delete status %d", code)
	}
	if code := do(t, "GET", srv.URL+"/games/"+snap.ID, "", nil); code != http.StatusNotFound {
		t.Fatalf("deleted game status %d", code)
	}
}
