// Package bootstrap runs a service from typed configuration to graceful
// shutdown.
//
//	app, err := bootstrap.NewApp(&cfg, bootstrap.WithLogSinks(store))
//	app.RegisterComponent(subscriptions)
//	app.RegisterComponent(httpServer)
//	app.OnStop(processor.Wait)
//	err = app.Run(ctx)
//
// Run starts components in registration order, runs OnStart hooks, then
// blocks until SIGINT, SIGTERM or context cancellation. Shutdown runs OnStop
// hooks first and then stops components in reverse order, all within the
// graceful timeout.
package bootstrap
