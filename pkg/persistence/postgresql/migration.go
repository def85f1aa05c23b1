package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				trigger JSONB NOT NULL,
				target_connector TEXT NOT NULL,
				action JSONB NOT NULL,
				is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				position INTEGER NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_position ON workflows (position);
		`,
	}
}
