package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				is_enabled BOOLEAN NOT NULL DEFAULT FALSE,
				trigger_type VARCHAR(50) NOT NULL CHECK (trigger_type IN ('time', 'event')),
				trigger_config JSONB,
				stop_on_error BOOLEAN NOT NULL DEFAULT FALSE,
				actions JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_tenant ON workflows(tenant_id);
			CREATE INDEX idx_workflows_enabled ON workflows(is_enabled);

			CREATE TABLE workflow_executions (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL REFERENCES workflows(id),
				tenant_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'completed', 'failed')),
				trigger_data JSONB,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				error TEXT NOT NULL DEFAULT '',
				action_executions JSONB NOT NULL DEFAULT '[]'
			);

			CREATE INDEX idx_executions_workflow ON workflow_executions(workflow_id);
			CREATE INDEX idx_executions_status ON workflow_executions(status);
			CREATE INDEX idx_executions_started_at ON workflow_executions(started_at);
		`,
	}
}
