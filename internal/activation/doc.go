// Package activation converges on a remote object's state without losing
// transitions. WaitForState subscribes to the object's state feed before the
// first read, so a transition landing between subscribe and read is still
// observed, then waits within a deadline for the caller's classifier to
// declare a terminal outcome.
//
// The waiter only observes: issuing the activate or deactivate request is
// the caller's job, and no retries happen here. Concurrent waits against
// the same object are safe with each other, but two concurrent activation
// requests against one device race inside the remote service; callers that
// need exclusivity must serialize the requests themselves.
package activation
