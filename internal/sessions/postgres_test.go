package sessions

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/agentcore/core/pkg/models"
)

func TestPostgresStoreAppendAllocatesNextSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT id FROM sessions WHERE id = \$1 FOR UPDATE`).
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT MAX\(sequence\) FROM messages WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO messages`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg, err := store.Append(context.Background(), models.Message{
		SessionID: "sess-1",
		Role:      models.RoleUser,
		Content:   []byte(`[{"type":"text","text":"hi"}]`),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.Sequence != 4 {
		t.Fatalf("expected sequence 4, got %d", msg.Sequence)
	}
	if msg.ID == "" {
		t.Fatal("expected a generated message id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
