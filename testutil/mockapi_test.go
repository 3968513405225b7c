package testutil_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kbukum/kiotahttp/component"
	"github.com/kbukum/kiotahttp/testutil"
)

func get(t *testing.T, api *testutil.MockAPI, path string) (int, string, http.Header) {
	t.Helper()
	resp, err := api.Client().Get(api.URL() + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp.Header
}

func TestMockAPI_ScriptedReplies(t *testing.T) {
	api := testutil.NewMockAPI()
	testutil.T(t).Setup(api)

	api.On(http.MethodGet, "/items",
		testutil.Status(http.StatusServiceUnavailable),
		testutil.JSON(http.StatusOK, `{"ok":true}`),
	)

	if code, _, _ := get(t, api, "/items"); code != http.StatusServiceUnavailable {
		t.Errorf("first reply = %d, want 503", code)
	}
	code, body, header := get(t, api, "/items?top=2")
	if code != http.StatusOK || body != `{"ok":true}` {
		t.Errorf("second reply = %d %q", code, body)
	}
	if !strings.HasPrefix(header.Get("Content-Type"), "application/json") {
		t.Errorf("unexpected content type %q", header.Get("Content-Type"))
	}
	if code, _, _ := get(t, api, "/items"); code != http.StatusOK {
		t.Errorf("last reply should repeat, got %d", code)
	}

	reqs := api.Requests()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 recorded requests, got %d", len(reqs))
	}
	if reqs[1].RawQuery != "top=2" || reqs[1].Path != "/items" {
		t.Errorf("unexpected recording %+v", reqs[1])
	}
}

func TestMockAPI_Unscripted(t *testing.T) {
	api := testutil.NewMockAPI()
	testutil.T(t).Setup(api)

	if code, _, _ := get(t, api, "/missing"); code != http.StatusNotImplemented {
		t.Errorf("expected 501 for unscripted route, got %d", code)
	}
}

func TestMockAPI_Lifecycle(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewMockAPI()

	if h := api.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := api.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := api.Start(ctx); err == nil {
		t.Error("expected error on double start")
	}
	if h := api.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}

	api.On(http.MethodGet, "/a", testutil.Status(http.StatusNoContent))
	get(t, api, "/a")
	snap, err := api.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := api.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if len(api.Requests()) != 0 {
		t.Error("expected Reset to clear recordings")
	}
	if code, _, _ := get(t, api, "/a"); code != http.StatusNotImplemented {
		t.Errorf("expected Reset to clear routes, got %d", code)
	}
	if err := api.Restore(ctx, snap); err != nil {
		t.Fatal(err)
	}
	if last, ok := api.LastRequest(); !ok || last.Path != "/a" {
		t.Errorf("expected restored recording, got %+v", last)
	}
	if err := api.Restore(ctx, "bad"); err == nil {
		t.Error("expected error for bad snapshot")
	}

	if err := api.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if api.URL() != "" {
		t.Error("expected empty URL after stop")
	}
}
