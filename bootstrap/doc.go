// Package bootstrap provides application initialization and lifecycle management.
// It builds the router and the application instance, mounts it, and runs the
// HTTP server around it.
//
// Usage:
//
//	app, err := bootstrap.NewApp(ctx, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Shutdown()
//
//	if err := app.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Wait for shutdown signal or a server failure
//	if err := app.WaitForShutdown(); err != nil {
//	    log.Print(err)
//	}
package bootstrap
