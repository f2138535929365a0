// Package files provides file discovery and atomic writes.
//
// Discovery lists the weekly workbooks in the downloads directory and the
// fishing event exports; WriteFileAtomic is used by the exporters so that
// readers of a report never see a half-written file.
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	workbooks, err := discovery.FindWorkbooks("downloads")
package files
