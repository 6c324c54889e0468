// Package tasks implements the scheduled background jobs of the pipeline.
//
// # Jobs
//
//  1. [Resolver.ResolveNext] : attaches Spotify ids to scraped plays
//     - catalog hit → resolve with no external call and no attempt charge
//     - otherwise one rate-limited search, Sørensen–Dice scored against the
//       played title, threshold 0.8 inclusive, first candidate winning ties
//     - failures and poor matches increment a bounded attempt counter; a
//       track past the ceiling is terminal and never re-selected
//
//  2. [Enricher.EnrichBatch] : attaches audio features to catalog entries
//     - one rate-limited call per batch of 100 ids
//     - a failed batch is skipped; its entries are re-selected next cycle
//
//  3. [PlaylistSync.SyncCycle] : appends recent daytime plays to each
//     station's playlist, deduplicated against an in-memory membership set
//     rebuilt at startup by [PlaylistSync.Load]
//
// # Scheduling
//
// Each job runs under its own [Scheduler]. A firing passes the job a done
// callback and the next interval is armed only from that callback, so runs of
// one schedule never overlap. The three schedules do overlap each other in
// wall-clock time; they share a single services.Throttle so their external
// calls still respect the global spacing.
//
// Within a job everything is sequential on purpose: one record, one batch,
// one station at a time. Parallel calls would defeat the shared throttle and
// race on the membership maps.
package tasks
