// Package services implements the data portal backend: the account
// directory, the work-item catalog and the checkbox state with its audit
// log, each persisted as JSON documents in the kv store.
//
// Portal composes the three services into the single call surface used by
// the terminal client and the gRPC gateway, adding optional simulated
// latency, logging and per-call metrics.
package services
