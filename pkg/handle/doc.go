// Package handle implements the opaque handles that cross the sassafras
// boundary.
//
// A handle is a 64-bit value. Zero is the null handle. Otherwise the value
// packs a slot index, a generation counter, a kind tag and a borrow flag:
//
//	bit 63      borrow flag
//	bits 56-62  kind tag
//	bits 32-55  generation
//	bits 0-31   slot index
//
// Owning handles come from Table.Make and are released exactly once with
// Table.Delete. Borrowing handles come from Lender.Lend and refer to an
// object embedded in an owner; they have no Delete and become invalid when
// the owner revokes them. The two are distinct Go types, so a Borrowed value
// cannot be passed to Delete.
//
// Every resolve checks kind, generation and revocation. A null, stale,
// wrong-kind or revoked handle is a contract violation and panics with a
// *Violation after the configured hook has run.
package handle
