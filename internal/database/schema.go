package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL applied at startup. Statements are idempotent so
// every binary (server and tick) can run them unconditionally; MySQL keeps
// the authoritative state. Funds and wear are declared as plain BIGINT/INT
// because the repositories guard every decrement; the application never
// issues an update that could take them negative.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		display_name  VARCHAR(64)     NOT NULL,
		funds         BIGINT          NOT NULL DEFAULT 0,
		shares        BIGINT          NOT NULL DEFAULT 0,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_players_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		player_id  BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_player (player_id),
		CONSTRAINT fk_refresh_tokens_player FOREIGN KEY (player_id) REFERENCES players (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		x          INT             NOT NULL,
		y          INT             NOT NULL,
		sector     VARCHAR(32)     NOT NULL,
		wear       INT             NOT NULL DEFAULT 0,
		status     ENUM('planned','new_constructed','old_constructed') NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_rooms_coord (x, y),
		KEY idx_rooms_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bids (
		id        BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		room_id   BIGINT UNSIGNED NOT NULL,
		player_id BIGINT UNSIGNED NOT NULL,
		amount    BIGINT          NOT NULL,
		placed_at DATETIME(6)     NOT NULL,
		status    ENUM('new','active','old_winner','old_loser') NOT NULL DEFAULT 'new',
		PRIMARY KEY (id),
		UNIQUE KEY uq_bids_player_room (player_id, room_id),
		KEY idx_bids_room_status (room_id, status),
		CONSTRAINT fk_bids_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE,
		CONSTRAINT fk_bids_player FOREIGN KEY (player_id) REFERENCES players (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ownerships (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		room_id    BIGINT UNSIGNED NOT NULL,
		player_id  BIGINT UNSIGNED NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_ownerships_room (room_id),
		KEY idx_ownerships_player (player_id),
		CONSTRAINT fk_ownerships_room FOREIGN KEY (room_id) REFERENCES rooms (id),
		CONSTRAINT fk_ownerships_player FOREIGN KEY (player_id) REFERENCES players (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS renovation_orders (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		room_id        BIGINT UNSIGNED NOT NULL,
		player_id      BIGINT UNSIGNED NOT NULL,
		kind           VARCHAR(32)     NOT NULL,
		cost           BIGINT          NOT NULL,
		wear_reduction INT             NOT NULL,
		status         ENUM('pending','processing','completed') NOT NULL DEFAULT 'pending',
		created_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_renovation_orders_room (room_id),
		KEY idx_renovation_orders_status (status),
		CONSTRAINT fk_renovation_orders_room FOREIGN KEY (room_id) REFERENCES rooms (id),
		CONSTRAINT fk_renovation_orders_player FOREIGN KEY (player_id) REFERENCES players (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tick_meta (
		id           TINYINT UNSIGNED NOT NULL,
		last_tick_at DATETIME(6)      NOT NULL,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema applies the embedded DDL. It is safe to call from every
// binary at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
