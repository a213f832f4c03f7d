// Package fixtures creates posts directly in a test database.
//
// Fixtures bypass the service layer so tests can arrange stored state,
// including rows the post rules would reject:
//
//	tdb := testdb.New(t)
//	defer tdb.Close()
//
//	f := fixtures.New(tdb.DB)
//	post := f.CreatePost(t, "user:alice", fixtures.WithContent("hello"))
package fixtures
