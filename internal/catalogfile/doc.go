// Package catalogfile loads scene catalogs from YAML content files and
// writes them to the catalog stores.
//
// Items and prompts are referenced by file-local keys. Their ids are derived
// from the scene slug and key, so seeding the same file twice updates rows
// in place instead of duplicating them.
package catalogfile
