// Package embedgate provides a Go client for the embedgate embedding and
// reranking gateway service.
//
// Every operation reports which path produced the result: the configured
// primary model or the deterministic fallback engine.
//
//	client, _ := embedgate.New("http://localhost:8080",
//	    embedgate.WithAPIKey("secret"),
//	)
//	res, _ := client.Embed(ctx, "hello world")
//	if res.Fallback {
//	    // served by the deterministic engine, zero token cost
//	}
//
//	ranked, _ := client.Rerank(ctx, "machine learning", docs, embedgate.TopKAll)
package embedgate
