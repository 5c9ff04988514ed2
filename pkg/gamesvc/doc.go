// Package gamesvc defines the types, interfaces and errors of the game
// services management client.
//
// # Overview
//
// The management API hosts cloud games for Xbox One, Xbox 360 and PC. Each
// cloud game is a resource of the "gameservices" cloud service; supporting
// items such as VM packages, game packages, certificates, assets and game
// mode schemas live below it or in the per-subscription container.
//
// The interfaces here are implemented by the client returned from
// gsclient.New:
//
//	client, err := gsclient.New(&gamesvc.Config{
//		Endpoint:       "https://management.core.windows.net",
//		SubscriptionID: subscriptionID,
//		AccessToken:    token,
//	})
//	if err != nil {
//		return err
//	}
//
//	result, err := client.CloudGames().Create(ctx, &gamesvc.CloudGameRequest{
//		Name:     "alpha",
//		Platform: gamesvc.PlatformXboxOne,
//		SchemaID: schemaID,
//	})
//
// # Errors
//
// Failures are returned as *ServiceResponseError. Kind tells transport
// failures, protocol violations, failed remote operations, error responses,
// decode errors, timeouts and validation errors apart:
//
//	if gamesvc.IsOperationFailed(err) {
//		// the service accepted the request but the operation failed
//	}
//
// A GET of a missing item is not an error; the getter returns nil.
//
// # Logging
//
// Logger receives a message and a field map. NewLogrLogger bridges to
// logr; LogFunc adapts a function receiving one line per event.
package gamesvc
