package customers

import (
	"database/sql"
)

type customersRepo struct{ db *sql.DB }

func New(db *sql.DB) *customersRepo {
	return &customersRepo{db: db}
}
