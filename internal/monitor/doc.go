// Package monitor merges per-object change subscriptions into one ordered
// event feed. Each tracked object gets its own subscription and pump, so
// events for one object arrive in emission order while no ordering is
// promised across objects. A subscription that ends unexpectedly surfaces as
// an error event tagged with that object's identity; the remaining
// subscriptions keep delivering. Resubscription is the caller's decision;
// the monitor never reconnects on its own.
package monitor
