// Package netop provides a resilient network operation layer for
// mobile and edge clients that live on unreliable connections.
//
// Every request funnels through a single [Client] that classifies
// failures into stable error kinds, retries transient ones with
// exponential backoff, and falls back to a durable offline queue when
// the backend is unreachable. A connectivity monitor watches
// reachability and a sync coordinator drains the queue in order as soon
// as the connection returns.
//
// Basic usage:
//
//	store, err := queue.Open("/data/offline.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := netop.NewClient(netop.ConfigFromEnv(),
//		netop.WithBaseURL("https://api.example.com"),
//		netop.WithStore(store),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Post(ctx, "/harvest-logs", payload)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if resp.Queued {
//		fmt.Println("saved for offline sync:", resp.QueueItemID)
//	}
//
// Offline writes succeed immediately with Response.Queued set; the
// queued item is delivered in the background once connectivity is
// restored. Reads while offline fail fast with a noInternet error so
// the UI can show cached data instead of spinning.
package netop
