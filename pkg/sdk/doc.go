// Package metasearch is an in-process Go client for searching Cumulus
// metadata on the live Postgres store or on DuckDB over parquet snapshots.
//
// # Opening a client
//
//	client, err := metasearch.New(ctx,
//		metasearch.WithPostgres("postgres://cumulus@localhost/cumulus"),
//		metasearch.WithSnapshot("archive-bucket", "cumulus/snapshots", "us-east-1"),
//		metasearch.WithStack("sandbox"),
//	)
//	defer client.Close()
//
// # Fluent search
//
//	resp, err := client.Search(metasearch.Granules).
//		Where("status", "completed").
//		In("collectionId", "MOD09GQ___006", "MOD11A1___006").
//		Between("updatedAt", from, to).
//		Sort("-timestamp").
//		Limit(50).
//		Do(ctx)
//
// Archive() runs the same search on the snapshot backend.
//
// # Query-string searches
//
// Query accepts the HTTP filter grammar directly:
//
//	q, _ := url.ParseQuery("status=failed&error.Error__exists=true&searchContext=archive")
//	resp, err := client.Query(ctx, metasearch.Granules, q)
package metasearch
