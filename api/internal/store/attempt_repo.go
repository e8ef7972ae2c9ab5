package store

import (
	"context"
	"database/sql"

	"exam-bot/api/internal/exam"
)

// AttemptRepo archives completed exam attempts. It is a delivery target,
// not session storage: rows are written once, after the verdict exists.
type AttemptRepo struct{ DB *sql.DB }

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{DB: db} }

func (r *AttemptRepo) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists exam_attempts (
  attempt_id  text primary key,
  created_at  timestamptz not null default now(),
  name        text not null,
  surname     text not null,
  student_id  text not null,
  transcript  text not null,
  artifact    text not null,
  defense     text not null,
  verdict     text not null,
  archive     bytea not null
)`
	_, err := r.DB.ExecContext(ctx, q)
	return err
}

func (r *AttemptRepo) Name() string { return "postgres" }

// Deliver implements export.Target.
func (r *AttemptRepo) Deliver(ctx context.Context, b exam.ExportBundle, archive []byte) error {
	const q = `
insert into exam_attempts (
  attempt_id, name, surname, student_id,
  transcript, artifact, defense, verdict, archive
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
on conflict (attempt_id) do nothing`
	_, err := r.DB.ExecContext(ctx, q,
		b.AttemptID, b.Identity.Name, b.Identity.Surname, b.Identity.ID,
		b.TranscriptText, b.ArtifactText, b.DefenseText, b.VerdictText, archive,
	)
	return err
}
