// Package loktest provides an in-process stand in for a native
// LibreOfficeKit library.
//
// A Kit builds a real kit struct and class table whose slots are C
// function pointers backed by Go code, so the packages under test
// exercise the same foreign call path they use against a native
// library, without one being installed. Scripted options shape the
// fake's behavior and recording getters expose the traffic that reached
// it:
//
//	kit := loktest.New(
//	    loktest.WithProtectedDocument("file:///tmp/locked.odt", "hunter2"),
//	)
//	defer kit.Close()
//
//	raw, err := sys.FromKit(kit.Pointer())
//
// The fake follows the kit error slot protocol. Failing operations set
// the slot, successful ones clear it, and reading it drains it. Strings
// handed to the caller are tracked until freeError releases them, so
// tests can assert that nothing leaks with LiveAllocs.
//
// Table slots are created once per process and shared by every Kit,
// keeping the process-wide callback budget flat no matter how many
// fakes a test run creates.
package loktest
