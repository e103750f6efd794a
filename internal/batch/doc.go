// Package batch runs many form posts concurrently for the formpost CLI.
//
// This package is internal to formpost. It implements a bounded worker pool
// over a fixed list of jobs and collects one result per job, in job order.
// A failing job never cancels the others.
//
// The main components are:
//
//   - [Job]: one POST to send
//   - [Result]: the outcome of one job
//   - [Runner]: executes jobs against a [Poster] with a concurrency limit
package batch
