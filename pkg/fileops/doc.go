// Package fileops provides the filesystem primitives the template server is
// built on: a text reader with classified failures, containment checks that
// follow symlinks, a scanner confined to an os.Root, and atomic writes.
//
// # Reading
//
// ReadText never returns a bare *os.PathError. Every failure is a *ReadError
// whose Kind tells the caller what happened:
//
//	text, err := fileops.ReadText(path, 1<<20)
//	var rerr *fileops.ReadError
//	if errors.As(err, &rerr) {
//	    switch rerr.Kind {
//	    case fileops.ReadNotFound:
//	        // template missing
//	    case fileops.ReadPermissionDenied, fileops.ReadTooLarge, fileops.ReadOther:
//	        // surface as a read failure
//	    }
//	}
//
// # Containment
//
// ContainedIn answers "does this existing entry, after following links, live
// under that directory". It is the filesystem half of path sandboxing; the
// string half lives in internal/sandbox.
//
// # Scanning
//
// ScanFiles walks a directory through an os.Root so the walk itself can never
// leave the scan root, and skips symlinked directories that point outside it.
package fileops
