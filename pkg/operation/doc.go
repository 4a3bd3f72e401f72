/*
Package operation drives the copy pass over ingested records.

	+-------------+
	|   records   |
	+------+------+
	       |
	+------+------+
	|   Resolve   |  layout
	+------+------+
	       |
	+------+------+
	|  CopyFile   |  store batch
	+------+------+
	       |
	+------+------+
	|    Emit     |  metadata -> same batch
	+------+------+
	       |
	+------+------+
	|   Commit    |  both renames, or neither
	+------+------+
	       |
	+------+------+
	|   Result    |  -> report
	+-------------+

🎯 Purpose:
- Runs every record through resolve, copy and emit
- Turns each per-record error into a failed Outcome
- Reports progress to an injected Observer

🔄 Flow:
1. Resolve the source and both destinations
2. Reject a path that normalizes to nothing or climbs out of the tree
3. Stage the copy for files/ and the sidecar for metadata/ in one batch
4. Commit the batch, or discard it on the first failure
5. Count successes from the outcome list once the pass is over

⚡ Concurrency:
Workers above one run records on an errgroup with a fixed limit. Outcomes are
written by index, so the Result is identical to a sequential pass. Directory
creation is idempotent and every write is a rename, which is all the pool
needs from the store.

🔍 Example:

	runner, err := operation.New(operation.Options{
		WorkspaceRoot: ".",
		Store:         store.New("copied_files_with_metadata"),
		Observer:      logger,
	})
	res, err := runner.Run(ctx, records)
*/
package operation
