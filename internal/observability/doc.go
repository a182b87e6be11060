// Package observability records client activity in an append-only JSONL
// event log, derives usage metrics from it, and raises deadline alerts
// over the task collection.
package observability
