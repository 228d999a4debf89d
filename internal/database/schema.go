package database

// FolioSchema defines the relational ledger: users own portfolios, portfolios
// own symbols, symbols own transactions. Deletes cascade down the chain so no
// orphaned symbol or transaction can survive its parent.
const FolioSchema = `
CREATE TABLE IF NOT EXISTS users (
    user_id           INTEGER PRIMARY KEY AUTOINCREMENT,
    username          TEXT UNIQUE NOT NULL,
    email             TEXT UNIQUE,
    password_hash     TEXT NOT NULL,
    risk_tolerance    TEXT NOT NULL CHECK (risk_tolerance IN ('Low', 'Medium', 'High')),
    verification_code TEXT,
    verified          INTEGER NOT NULL DEFAULT 0,
    created_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS portfolios (
    portfolio_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      INTEGER NOT NULL,
    name         TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS symbols (
    symbol_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    portfolio_id INTEGER NOT NULL,
    ticker       TEXT NOT NULL,
    sector       TEXT NOT NULL DEFAULT 'Unknown',
    FOREIGN KEY (portfolio_id) REFERENCES portfolios (portfolio_id) ON DELETE CASCADE,
    UNIQUE (portfolio_id, ticker)
);

CREATE TABLE IF NOT EXISTS transactions (
    transaction_id   INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol_id        INTEGER NOT NULL,
    transaction_type TEXT NOT NULL CHECK (transaction_type IN ('Buy', 'Sell')),
    shares           REAL NOT NULL CHECK (shares > 0),
    price            REAL NOT NULL CHECK (price >= 0),
    fee              REAL NOT NULL DEFAULT 0 CHECK (fee >= 0),
    transaction_date TEXT NOT NULL,
    FOREIGN KEY (symbol_id) REFERENCES symbols (symbol_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_portfolios_user ON portfolios (user_id);
CREATE INDEX IF NOT EXISTS idx_symbols_portfolio ON symbols (portfolio_id);
CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions (symbol_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (symbol_id, transaction_date, transaction_id);
`

// CacheSchema holds cached external API responses as msgpack blobs with
// expiration timestamps.
const CacheSchema = `
CREATE TABLE IF NOT EXISTS quote_cache (
    ticker     TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quote_cache_expires ON quote_cache (expires_at);
`

// schemas maps database names to their embedded schema.
var schemas = map[string]string{
	"folio": FolioSchema,
	"cache": CacheSchema,
}
