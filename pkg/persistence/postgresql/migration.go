package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create templates table
			CREATE TABLE templates (
				id UUID PRIMARY KEY,
				account_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				version INTEGER NOT NULL DEFAULT 0,
				is_active BOOLEAN NOT NULL DEFAULT false,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_templates_account_id ON templates(account_id);
			CREATE INDEX idx_templates_deleted_at ON templates(deleted_at);

			-- Create template_versions table (immutable snapshots)
			CREATE TABLE template_versions (
				template_id UUID NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
				version INTEGER NOT NULL,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (template_id, version)
			);

			-- Create workflows table
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				account_id VARCHAR(255) NOT NULL,
				template_id UUID NOT NULL,
				status VARCHAR(50) NOT NULL,
				resume_at TIMESTAMP WITH TIME ZONE,
				data JSONB NOT NULL,
				date_created TIMESTAMP WITH TIME ZONE NOT NULL,
				date_completed TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_account_id ON workflows(account_id);
			CREATE INDEX idx_workflows_template_id ON workflows(template_id);
			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_resume_at ON workflows(resume_at);

			-- Create users table
			CREATE TABLE users (
				id VARCHAR(255) PRIMARY KEY,
				account_id VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL
			);

			CREATE INDEX idx_users_account_id ON users(account_id);

			-- Create groups table
			CREATE TABLE groups (
				id VARCHAR(255) PRIMARY KEY,
				account_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				user_ids JSONB NOT NULL DEFAULT '[]'
			);

			CREATE INDEX idx_groups_account_id ON groups(account_id);
		`,
	}
}
