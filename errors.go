package ecsloop

import "errors"

// ErrMissingResource names the MissingResource error kind. No function in
// this package returns it: Resource.Get and State.Get report a missing
// value with ok=false, and Resource.Set on a missing resource drops the
// write.
var ErrMissingResource = errors.New("ecsloop: resource not present")

// ErrConflictingRegistration names the ConflictingRegistration error kind
// (a second plugin of an already-added type). No function in this package
// returns it: AddPlugin ignores the duplicate silently.
var ErrConflictingRegistration = errors.New("ecsloop: conflicting system registration")

// ErrPoolShutdown names the PoolShutdown error kind. No function in this
// package returns it: the App's worker pool is never torn down.
var ErrPoolShutdown = errors.New("ecsloop: worker pool already shut down")
