package postgres

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_definitions (
				service_type TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				definition JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS ledger_entries (
				entry_id TEXT PRIMARY KEY,
				tx_id TEXT NOT NULL,
				payer TEXT NOT NULL,
				merchant TEXT,
				provider_uuid TEXT,
				service_type TEXT,
				amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
				igas_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
				itax DOUBLE PRECISION NOT NULL DEFAULT 0,
				fees JSONB,
				status TEXT NOT NULL,
				booking_details JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_ledger_entries_tx_id ON ledger_entries (tx_id);
			CREATE INDEX IF NOT EXISTS idx_ledger_entries_payer ON ledger_entries (payer);
			CREATE INDEX IF NOT EXISTS idx_ledger_entries_status ON ledger_entries (status);

			CREATE TABLE IF NOT EXISTS settlement_snapshots (
				tx_id TEXT PRIMARY KEY,
				payer TEXT NOT NULL,
				merchant TEXT,
				provider_uuid TEXT,
				service_type TEXT,
				amount DOUBLE PRECISION NOT NULL,
				fees JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_settlement_snapshots_provider
				ON settlement_snapshots (provider_uuid, created_at DESC);
		`,
	}
}
