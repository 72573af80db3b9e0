package store

import "github.com/udovin/solve-server/db"

// Ctx threads an optional in-flight transaction and an optional acting
// account id through a Store call, mirroring the original's
// Context<'a,'b>. A zero Ctx (nil Tx) means the call manages its own
// create-and-commit transaction; a Ctx carrying a Tx means the caller is
// composing several Store calls into one larger transaction it owns.
type Ctx struct {
	Tx        db.Transaction
	AccountID *int64
}

// WithTx returns a copy of c bound to tx.
func (c Ctx) WithTx(tx db.Transaction) Ctx {
	c.Tx = tx
	return c
}

// WithAccountID returns a copy of c attributing subsequent events to id.
func (c Ctx) WithAccountID(id int64) Ctx {
	c.AccountID = &id
	return c
}

func (c Ctx) executor(database *db.Database) db.Executor {
	if c.Tx != nil {
		return c.Tx
	}
	return database
}
