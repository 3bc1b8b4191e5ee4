// Package shelf provides a small file server over a single storage root.
//
// Files are addressed by slash separated paths relative to the root. The
// service uploads, reads, copies and deletes files, lists directories as
// nested trees, and can record every mutation in an optional journal.
//
// # Key Components
//
//   - StorageService: Main service combining file storage and the journal
//   - FileStorage: Interface for sandboxed file operations (see filesystem)
//   - Journal: Interface for mutation history (SQLite, PostgreSQL)
//   - DirectoryTree: Recursive listing with its JSON encoding
//   - ResolvePath: Validation of client supplied paths
//
// # Example Usage
//
//	root, err := os.OpenRoot("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	service, err := shelf.NewStorageService(filesystem.NewFileStorage(root), shelf.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload a file
//	result, err := service.Put(ctx, "docs/readme.txt", reader)
//
//	// List a directory
//	tree, err := service.List(ctx, "docs")
//
// See the http package for the REST API and the database package for
// journal backends.
package shelf
