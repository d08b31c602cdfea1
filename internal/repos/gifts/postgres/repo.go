package gifts

import (
	"database/sql"

	"github.com/bundlebay/giftcore/internal/repos/gifts"
)

var _ gifts.Gifts = (*giftsRepo)(nil)

type giftsRepo struct{ db *sql.DB }

func New(db *sql.DB) *giftsRepo {
	return &giftsRepo{db: db}
}
