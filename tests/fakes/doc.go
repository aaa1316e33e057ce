// Package fakes provides test doubles for the vault server and for secret
// sinks.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior. FakeVaultServer is a real HTTP server, so tests run the
// production client and transport against it.
//
// Usage:
//
//	srv := fakes.NewFakeVaultServer()
//	defer srv.Close()
//	srv.AddVault(fakes.FakeVault{
//	    ID:   "v1",
//	    Name: "Prod",
//	    Entries: []fakes.FakeEntry{{ID: "e9", Name: "db", Password: "s3cr3t"}},
//	})
//	client, _ := vaultapi.NewClient(srv.URL)
//	// Run the pipeline, then inspect srv.Calls()...
package fakes
