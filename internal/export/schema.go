package export

// schema contains the SQL statements for the aggregate snapshot database.
const schema = `
-- Environments that met the min-samples threshold
CREATE TABLE IF NOT EXISTS environments (
    name         TEXT PRIMARY KEY,
    sample_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_environments_samples ON environments(sample_count);

-- Per-environment, per-taxon summary statistics
CREATE TABLE IF NOT EXISTS taxon_stats (
    environment TEXT NOT NULL,
    taxon       TEXT NOT NULL,
    mean        REAL NOT NULL,
    stddev      REAL,
    n           INTEGER NOT NULL,
    PRIMARY KEY (environment, taxon),
    FOREIGN KEY (environment) REFERENCES environments(name)
);

CREATE INDEX IF NOT EXISTS idx_taxon_stats_taxon ON taxon_stats(taxon);

-- Export metadata
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT
);
`
