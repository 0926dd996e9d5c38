// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package shmregion provides named shared memory regions, which can be
// mapped by several independent processes.
//
// A region is either created exclusively (O_CREATE_ONLY), or attached to an
// existing object (O_OPEN_ONLY). The creator owns the backing object and
// removes it from the system, when the region is closed. Attached regions
// never remove it. If the owner dies without closing the region, the object
// stays in the system until it is removed with Remove.
//
// The package does not synchronize access to the mapped memory. Callers,
// which share data through a region, have to arbitrate access themselves.
//
// Subpackages:
//	shm      - shared memory objects (unix, windows)
//	mmf      - memory mapping of objects (unix, windows)
//	registry - a shared registry of alive processes built on top of a region
package shmregion
