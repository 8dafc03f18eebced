// Package b2 provides a client for the Backblaze B2 native API.
//
// The client handles the parts of the API that are easy to get wrong:
// account authorization, server-instructed throttling coordinated across
// every client for the same account, bounded exponential-backoff retry of
// transient network failures, and cursor-based pagination of the listing
// endpoints.
//
// # Usage
//
// Create a client with your account ID and application key:
//
//	logger := zerolog.New(os.Stderr)
//	client, err := b2.NewClient("account-id", "application-key", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	for file, err := range client.ListFileVersions(ctx, bucketID, b2.ListOptions{}) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(file.FileName)
//	}
//
// # Retry behavior
//
// Connection failures and timeouts are retried with exponential backoff
// (1s doubling to a 10s ceiling) up to ten attempts per call chain, with a
// re-authorization before each retry of a non-login call. When the server
// answers with a Retry-After header the client waits out the delay instead
// of consuming its retry budget; the deadline is shared between every
// client for the account, so concurrent clients back off together. A 403
// without Retry-After permanently shuts the account down for the rest of
// the process.
//
// # Error Handling
//
// Callers only ever see three terminal failures:
//
//   - RetryError: the retry budget was exhausted
//   - ShutdownError: the account was permanently shut down
//   - APIError: a non-success response the client does not retry
//
// Everything else is absorbed inside the retry loop.
package b2
