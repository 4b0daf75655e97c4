// Package pagination dumps one catalog sheet page by page into a sheet store.
//
// The catalog exposes each sheet as numbered pages; every page carries a
// continuation token that is null on the last page. A SheetDumper walks the
// pages in order starting at 1, always requesting language=all so each row
// carries every locale, appends the rows of each non-empty page to the
// sheet's store file, and waits a fixed delay between pages.
//
// Example usage:
//
//	dumper := pagination.NewSheetDumper(catalogClient, sheetStore, pagination.DefaultConfig())
//	result, err := dumper.Dump(ctx, "Item", "7.31")
//
// A fetch failure that survives the client's retries ends the dump of that
// sheet only; rows from earlier pages stay in the store.
package pagination
