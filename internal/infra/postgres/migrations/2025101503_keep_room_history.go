package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0003_keep_room_history.sql
var keepRoomHistorySQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, keepRoomHistorySQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				DELETE FROM rooms old USING rooms newer WHERE old.code = newer.code AND old.id < newer.id;
				DROP INDEX IF EXISTS rooms_code_idx;
				DROP INDEX IF EXISTS rooms_open_code_idx;
				ALTER TABLE rooms DROP COLUMN id;
				ALTER TABLE rooms ADD PRIMARY KEY (code);`)
			return err
		},
	)
}
