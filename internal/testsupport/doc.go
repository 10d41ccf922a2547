// Package testsupport provides scripted fakes for the bus, state-wait, and
// change-feed contracts so core packages can be tested without a real
// D-Bus connection.
package testsupport
