// Package clientcli provides a client library for shelf file servers.
//
// It supports upload, download, copy, info, delete and list operations.
// The package includes profile-based configuration for managing connections
// to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:5708"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:  "./file.txt",
//		RemotePath: "documents/file.txt",
//	})
//
// # Profiles
//
// Profiles in ~/.shelf/config.yaml name servers. Selection resolves the
// endpoint the way shelf-cli does: --endpoint, then SHELF_ENDPOINT, then the
// chosen or default profile.
//
//	cfg, err := clientcli.Selection{Profile: "production"}.Resolve()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(cfg)
//	if err := client.CheckServer(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
