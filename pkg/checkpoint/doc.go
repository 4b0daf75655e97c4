// Package checkpoint records which sheets a crawl has already dumped so an
// interrupted run can resume without fetching them again.
//
// The ledger is a Redis set per catalog pin and output directory:
//
//	client, err := checkpoint.Connect(ctx, "redis://localhost:6379/0")
//	if err != nil {
//		return err
//	}
//	ledger := checkpoint.NewRedisLedger(client, checkpoint.Key{Pin: "7.31", Root: "data/full"}, 0)
//
//	done, err := ledger.IsDone(ctx, "Item")
//	...
//	err = ledger.MarkDone(ctx, "Item")
//
// Without Redis, Nop is used: nothing is ever done and marks are dropped.
//
// # Metrics
//
//   - catalog_checkpoint_hits_total - sheets skipped because they were done
//   - catalog_checkpoint_errors_total{operation} - ledger operation errors
package checkpoint
