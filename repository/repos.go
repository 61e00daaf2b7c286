package repository

import (
	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/repository/postgres"
)

type Repo struct {
	LogsCursors entity.LogsCursorsRepo
	Tickets     entity.TicketsRepo
	Deposits    entity.DepositsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		LogsCursors: postgres.NewLogsCursorRepo("logs_cursors", db),
		Tickets:     postgres.NewTicketsRepo("tickets", db),
		Deposits:    postgres.NewDepositsRepo("deposits", db),
	}
}
