package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'bid_status') THEN
			CREATE TYPE bid_status AS ENUM ('draft', 'submitted', 'under_review', 'accepted', 'rejected');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'work_order_status') THEN
			CREATE TYPE work_order_status AS ENUM ('proforma', 'payment_pending', 'signature_pending', 'in_progress', 'disputed', 'completed');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'negotiation_status') THEN
			CREATE TYPE negotiation_status AS ENUM ('active', 'completed', 'cancelled');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS bids (
		id UUID PRIMARY KEY,
		service_request_id UUID NOT NULL,
		bidder JSONB NOT NULL,
		breakdown JSONB NOT NULL,
		delivery_date TIMESTAMPTZ NOT NULL,
		status bid_status NOT NULL DEFAULT 'submitted',
		queries JSONB NOT NULL DEFAULT '[]',
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_service_request_id ON bids (service_request_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_status ON bids (status);`,
	`CREATE TABLE IF NOT EXISTS negotiation_threads (
		id UUID PRIMARY KEY,
		bid_id UUID NOT NULL REFERENCES bids(id),
		status negotiation_status NOT NULL DEFAULT 'active',
		inputs JSONB NOT NULL DEFAULT '[]',
		agreed_terms JSONB,
		last_activity TIMESTAMPTZ NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_negotiation_threads_bid_id ON negotiation_threads (bid_id);`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id UUID PRIMARY KEY,
		reference VARCHAR(64) NOT NULL,
		type VARCHAR(32) NOT NULL,
		status work_order_status NOT NULL DEFAULT 'proforma',
		bid_id UUID REFERENCES bids(id),
		seeker JSONB NOT NULL,
		provider JSONB NOT NULL,
		scope_of_work TEXT NOT NULL,
		deliverables JSONB NOT NULL DEFAULT '[]',
		timeline JSONB NOT NULL,
		breakdown JSONB NOT NULL,
		milestones JSONB NOT NULL DEFAULT '[]',
		information_requests JSONB NOT NULL DEFAULT '[]',
		team_members JSONB NOT NULL DEFAULT '[]',
		disputes JSONB NOT NULL DEFAULT '[]',
		feedback JSONB NOT NULL DEFAULT '[]',
		activities JSONB NOT NULL DEFAULT '[]',
		signatures JSONB NOT NULL DEFAULT '{}',
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_work_orders_reference ON work_orders (reference);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_status ON work_orders (status);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_bid_id ON work_orders (bid_id) WHERE bid_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_created_at ON work_orders (created_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
