// Package recordstore persists image analysis records in a single
// JSON-document blob.
//
// The store is a flat file rewritten whole on every mutation. That is a
// deliberate scale ceiling: datasets are a single user's uploads, so a
// linear scan beats the complexity of an indexed store. Records are keyed
// by image content hash; saving a hash that already exists merges into the
// existing record instead of appending a duplicate.
//
// A corrupt or unreadable store file degrades to an empty view with a
// logged warning rather than failing reads; write failures always
// propagate.
package recordstore
