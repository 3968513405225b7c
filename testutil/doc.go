// Package testutil provides test infrastructure for code built on the
// request adapter.
//
// MockAPI is a scripted HTTP endpoint served by gin. Each route answers
// with a queue of replies and every request is recorded for assertions:
//
//	api := testutil.NewMockAPI()
//	testutil.T(t).Setup(api)
//	api.On(http.MethodGet, "/users", testutil.JSON(http.StatusOK, `[{"id":"1"}]`))
//	// point the adapter at api.URL()
//
// MockAPI implements TestComponent, so Reset clears routes and recorded
// requests between cases and Snapshot/Restore capture the recording.
package testutil
