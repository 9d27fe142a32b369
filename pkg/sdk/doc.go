// Package propsales embeds the property sales register in a Go program:
// ingest monthly extracts into Valkey, Redis or memory, then search them.
//
//	client, _ := propsales.New(ctx,
//	    propsales.WithValkey("localhost:6379", ""),
//	    propsales.WithSourceURL("https://example.org/PPR-{date}.csv"),
//	)
//	defer client.Close()
//
//	res, _ := client.Ingest(ctx, 2024, time.May)
//	page, _ := client.Search(ctx, propsales.SearchParams{County: propsales.String("dublin")})
package propsales
