// Package testdb provides isolated SurrealDB environments for integration tests.
//
// # Test Database Setup
//
// Create a test database for each test:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    results := tdb.MustQuery("SELECT * FROM post", nil)
//	}
//
// # Migrations
//
// The SurrealQL files under migrations/ are applied in order on setup. Set
// MICROPOST_ROOT when tests run from outside the module tree.
//
// # Isolation
//
// Each TestDB gets its own namespace, removed again by Close.
//
// # Availability
//
// When SurrealDB is not reachable (or -short is set) the test is skipped
// rather than failed. Connection settings come from TEST_DB_HOST, TEST_DB_PORT,
// TEST_DB_USER and TEST_DB_PASSWORD.
//
// # Timeout Context
//
//	ctx := tdb.Ctx() // 10 second timeout, cancelled by Close
package testdb
