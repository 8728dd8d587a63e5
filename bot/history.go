package bot

import (
	"database/sql"
	"time"
	"unicode/utf8"

	"gopkg.in/gorp.v2"
)

const historyTable = "mcmonitor_checks"

// Check is one recorded status check.
type Check struct {
	Id      int64     `db:"id"`
	Query   string    `db:"query,size:36"`
	Channel string    `db:"channel,size:64"`
	Address string    `db:"address,size:255"`
	Online  int       `db:"online"`
	Max     int       `db:"max"`
	Error   string    `db:"error,size:255"`
	Ts      time.Time `db:"ts"`
}

func (c *Check) Failed() bool {
	return c.Error != ""
}

// History stores checks in an SQL database through gorp.
type History struct {
	dbmap *gorp.DbMap
}

func NewHistory(db *sql.DB, dialect gorp.Dialect) (*History, error) {
	dbmap := &gorp.DbMap{Db: db, Dialect: dialect}
	dbmap.AddTableWithName(Check{}, historyTable).SetKeys(true, "Id")
	if err := dbmap.CreateTablesIfNotExists(); err != nil {
		return nil, err
	}
	return &History{dbmap: dbmap}, nil
}

func (h *History) Record(check *Check) error {
	if len(check.Error) > 255 {
		check.Error = check.Error[:255]
		for !utf8.ValidString(check.Error) {
			check.Error = check.Error[:len(check.Error)-1]
		}
	}
	return h.dbmap.Insert(check)
}

// Last returns up to limit checks of a channel, newest first.
func (h *History) Last(channel string, limit int) (checks []*Check, err error) {
	_, err = h.dbmap.Select(&checks,
		"SELECT * FROM "+historyTable+" WHERE channel = ? ORDER BY id DESC LIMIT ?",
		channel, limit)
	return
}

func (h *History) Close() error {
	return h.dbmap.Db.Close()
}
