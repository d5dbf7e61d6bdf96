// Package table provides the columnar document statistics layout.
//
// A Packed table is the read-only, compact per-document layout of one
// shard: a group id column followed by N fixed-width signed statistic
// columns. An Unpacked table is the mutable per-group accumulation
// buffer derived from a Packed layout template, one row per group.
//
// A Shard bundles a Packed table with per-term posting lists (roaring
// bitmaps of matching document ids) so a pass can locate the documents
// for a dictionary term without scanning the full table.
package table
