// Package gsclient is the entry point for building a game services
// management client that implements the gamesvc.Client interface.
//
// The returned client talks to the RDFE management API of one subscription.
// It registers resource types, creates the parent cloud service and the
// subscription container on first use, and waits for asynchronous
// operations before returning.
//
// Quick start
//
//	client, err := gsclient.NewWithToken("management.core.windows.net", subscriptionID, token)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	games, err := client.CloudGames().List(ctx)
//
// Certificates
//
// Management certificates are presented during the TLS handshake:
//
//	client, err := gsclient.NewWithCertificate(endpoint, subscriptionID, "mgmt.pem", "mgmt.key")
//
// Operations
//
// Create, Remove, Deploy and Stop return a gamesvc.OperationResult. A result
// in the TimedOut state is not an error; resume it later with
// client.Operations().Wait(ctx, result.RequestID).
package gsclient
